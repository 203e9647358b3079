package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "3000", AllowedOrigins: []string{"*"}},
		Shopify: ShopifyConfig{
			StoreDomain:           "example.myshopify.com",
			AccessToken:           "shpat_x",
			APIVersion:            "2024-10",
			RequestTimeoutSeconds: 20,
		},
		Reviews: ReviewsConfig{
			MetaobjectType:     "product_review",
			MetafieldNamespace: "custom",
			MetafieldKey:       "product_ratings",
		},
		RateLimit: RateLimitConfig{CreatePerHour: 20, GeneralPerWindow: 100, GeneralWindowMinutes: 15},
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{name: "development environment", config: &Config{Server: ServerConfig{AppEnv: "development"}}, expected: true},
		{name: "debug gin mode", config: &Config{Server: ServerConfig{GinMode: "debug"}}, expected: true},
		{name: "production environment", config: &Config{Server: ServerConfig{AppEnv: "production"}}, expected: false},
		{name: "release mode", config: &Config{Server: ServerConfig{GinMode: "release", AppEnv: "production"}}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsDevelopment())
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&Config{Server: ServerConfig{AppEnv: "production"}}).IsProduction())
	assert.False(t, (&Config{Server: ServerConfig{AppEnv: "staging"}}).IsProduction())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:     "missing store domain",
			mutate:   func(c *Config) { c.Shopify.StoreDomain = "" },
			errorMsg: "SHOPIFY_STORE_DOMAIN is required",
		},
		{
			name:     "missing access token",
			mutate:   func(c *Config) { c.Shopify.AccessToken = "" },
			errorMsg: "SHOPIFY_ACCESS_TOKEN is required",
		},
		{
			name:     "non-positive timeout",
			mutate:   func(c *Config) { c.Shopify.RequestTimeoutSeconds = 0 },
			errorMsg: "SHOPIFY_REQUEST_TIMEOUT_SECONDS",
		},
		{
			name:     "negative request pacing",
			mutate:   func(c *Config) { c.Shopify.MaxRequestsPerSecond = -1 },
			errorMsg: "SHOPIFY_MAX_REQUESTS_PER_SECOND",
		},
		{
			name:     "missing metaobject type",
			mutate:   func(c *Config) { c.Reviews.MetaobjectType = "" },
			errorMsg: "SHOPIFY_REVIEW_METAOBJECT_TYPE is required",
		},
		{
			name:     "no cors origins",
			mutate:   func(c *Config) { c.Server.AllowedOrigins = nil },
			errorMsg: "ALLOWED_CORS_ORIGINS is required",
		},
		{
			name:     "zero rate limit",
			mutate:   func(c *Config) { c.RateLimit.CreatePerHour = 0 },
			errorMsg: "rate limit settings must be positive",
		},
		{
			name:     "profiling without endpoint",
			mutate:   func(c *Config) { c.Profiling.Enabled = true },
			errorMsg: "O11Y_PROFILING_ENDPOINT is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_STORE_DOMAIN", "example.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_x")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "2024-10", cfg.Shopify.APIVersion)
	assert.Equal(t, 20*time.Second, cfg.Shopify.RequestTimeout())
	assert.Equal(t, 4.0, cfg.Shopify.MaxRequestsPerSecond)
	assert.Equal(t, 10, cfg.Shopify.RequestBurst)
	assert.Equal(t, "product_review", cfg.Reviews.MetaobjectType)
	assert.Equal(t, "custom", cfg.Reviews.MetafieldNamespace)
	assert.Equal(t, "product_ratings", cfg.Reviews.MetafieldKey)
	assert.Equal(t, 20, cfg.RateLimit.CreatePerHour)
	assert.Equal(t, 100, cfg.RateLimit.GeneralPerWindow)
	assert.Equal(t, 15, cfg.RateLimit.GeneralWindowMinutes)
	assert.Equal(t, 300, cfg.Cache.StatsTTLSeconds)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("SHOPIFY_STORE_DOMAIN", "shop.example.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_y")
	t.Setenv("SHOPIFY_API_VERSION", "2025-01")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DATABASE_URL", "postgres://localhost/reviews")
	t.Setenv("ADMIN_JWT_SECRET", "secret")
	t.Setenv("REVIEW_CREATED_TRIGGER_URL", "https://hooks.example/?id=")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "2025-01", cfg.Shopify.APIVersion)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "secret", cfg.Auth.AdminJWTSecret)
	assert.Equal(t, "https://hooks.example/?id=", cfg.EventTriggers.ReviewCreatedTriggerURL)
}

func TestLoad_RefusesToStartWithoutCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHOPIFY_STORE_DOMAIN", "")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
}
