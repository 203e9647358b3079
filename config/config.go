package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Shopify       ShopifyConfig
	Reviews       ReviewsConfig
	Database      DatabaseConfig
	MediaArchive  MediaArchiveConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	EventTriggers EventTriggersConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	Cache         CacheConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type ShopifyConfig struct {
	StoreDomain           string
	AccessToken           string
	APIVersion            string
	RequestTimeoutSeconds int
	MaxRequestsPerSecond  float64
	RequestBurst          int
}

// RequestTimeout is the deadline of a single outbound call
func (s ShopifyConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

type ReviewsConfig struct {
	MetaobjectType     string
	MetafieldNamespace string
	MetafieldKey       string
}

type DatabaseConfig struct {
	URL        string
	MaxConns   int32
	MinConns   int32
	CACertPath string
}

// Enabled reports whether the relational mirror is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

type MediaArchiveConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	Region          string
	Prefix          string
}

type AuthConfig struct {
	AdminJWTSecret string
	AdminJWTIssuer string
}

type RateLimitConfig struct {
	CreatePerHour        int
	GeneralPerWindow     int
	GeneralWindowMinutes int
}

type EventTriggersConfig struct {
	ReviewCreatedTriggerURL string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

type CacheConfig struct {
	StatsTTLSeconds int // Approved-reviews cache TTL in seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "3000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")

	v.SetDefault("SHOPIFY_API_VERSION", "2024-10")
	v.SetDefault("SHOPIFY_REQUEST_TIMEOUT_SECONDS", 20)
	v.SetDefault("SHOPIFY_MAX_REQUESTS_PER_SECOND", 4)
	v.SetDefault("SHOPIFY_REQUEST_BURST", 10)
	v.SetDefault("SHOPIFY_REVIEW_METAOBJECT_TYPE", "product_review")
	v.SetDefault("SHOPIFY_RATINGS_METAFIELD_NAMESPACE", "custom")
	v.SetDefault("SHOPIFY_RATINGS_METAFIELD_KEY", "product_ratings")

	v.SetDefault("DATABASE_MAX_CONNS", 10)
	v.SetDefault("DATABASE_MIN_CONNS", 1)
	v.SetDefault("ADMIN_JWT_ISSUER", "reviewbridge-api")

	v.SetDefault("RATE_LIMIT_CREATE_PER_HOUR", 20)
	v.SetDefault("RATE_LIMIT_GENERAL_PER_WINDOW", 100)
	v.SetDefault("RATE_LIMIT_GENERAL_WINDOW_MINUTES", 15)

	v.SetDefault("STATS_CACHE_TTL_SECONDS", 300)

	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "alloy:4318") // OTLP over HTTP
	v.SetDefault("O11Y_BE_SERVICE_NAME", "reviewbridge-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "reviewbridge")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "reviewbridge-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Shopify: ShopifyConfig{
			StoreDomain:           strings.TrimSpace(v.GetString("SHOPIFY_STORE_DOMAIN")),
			AccessToken:           strings.TrimSpace(v.GetString("SHOPIFY_ACCESS_TOKEN")),
			APIVersion:            v.GetString("SHOPIFY_API_VERSION"),
			RequestTimeoutSeconds: v.GetInt("SHOPIFY_REQUEST_TIMEOUT_SECONDS"),
			MaxRequestsPerSecond:  v.GetFloat64("SHOPIFY_MAX_REQUESTS_PER_SECOND"),
			RequestBurst:          v.GetInt("SHOPIFY_REQUEST_BURST"),
		},
		Reviews: ReviewsConfig{
			MetaobjectType:     v.GetString("SHOPIFY_REVIEW_METAOBJECT_TYPE"),
			MetafieldNamespace: v.GetString("SHOPIFY_RATINGS_METAFIELD_NAMESPACE"),
			MetafieldKey:       v.GetString("SHOPIFY_RATINGS_METAFIELD_KEY"),
		},
		Database: DatabaseConfig{
			URL:        v.GetString("DATABASE_URL"),
			MaxConns:   v.GetInt32("DATABASE_MAX_CONNS"),
			MinConns:   v.GetInt32("DATABASE_MIN_CONNS"),
			CACertPath: v.GetString("DATABASE_CA_CERT_PATH"),
		},
		MediaArchive: MediaArchiveConfig{
			AccessKeyID:     v.GetString("MEDIA_ARCHIVE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("MEDIA_ARCHIVE_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("MEDIA_ARCHIVE_BUCKET"),
			Endpoint:        v.GetString("MEDIA_ARCHIVE_ENDPOINT"),
			Region:          v.GetString("MEDIA_ARCHIVE_REGION"),
			Prefix:          v.GetString("MEDIA_ARCHIVE_PREFIX"),
		},
		Auth: AuthConfig{
			AdminJWTSecret: v.GetString("ADMIN_JWT_SECRET"),
			AdminJWTIssuer: v.GetString("ADMIN_JWT_ISSUER"),
		},
		RateLimit: RateLimitConfig{
			CreatePerHour:        v.GetInt("RATE_LIMIT_CREATE_PER_HOUR"),
			GeneralPerWindow:     v.GetInt("RATE_LIMIT_GENERAL_PER_WINDOW"),
			GeneralWindowMinutes: v.GetInt("RATE_LIMIT_GENERAL_WINDOW_MINUTES"),
		},
		EventTriggers: EventTriggersConfig{
			ReviewCreatedTriggerURL: v.GetString("REVIEW_CREATED_TRIGGER_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		Cache: CacheConfig{
			StatsTTLSeconds: v.GetInt("STATS_CACHE_TTL_SECONDS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated setting, dropping blanks
func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Shopify.StoreDomain == "" {
		return fmt.Errorf("SHOPIFY_STORE_DOMAIN is required")
	}
	if c.Shopify.AccessToken == "" {
		return fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required")
	}
	if c.Shopify.APIVersion == "" {
		return fmt.Errorf("SHOPIFY_API_VERSION is required")
	}
	if c.Shopify.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("SHOPIFY_REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.Shopify.MaxRequestsPerSecond < 0 || c.Shopify.RequestBurst < 0 {
		return fmt.Errorf("SHOPIFY_MAX_REQUESTS_PER_SECOND and SHOPIFY_REQUEST_BURST must not be negative")
	}
	if c.Reviews.MetaobjectType == "" {
		return fmt.Errorf("SHOPIFY_REVIEW_METAOBJECT_TYPE is required")
	}
	if c.Reviews.MetafieldNamespace == "" || c.Reviews.MetafieldKey == "" {
		return fmt.Errorf("SHOPIFY_RATINGS_METAFIELD_NAMESPACE and SHOPIFY_RATINGS_METAFIELD_KEY are required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.RateLimit.CreatePerHour <= 0 || c.RateLimit.GeneralPerWindow <= 0 || c.RateLimit.GeneralWindowMinutes <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
