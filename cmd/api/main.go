package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reviewbridge/reviewbridge-api/config"
	"github.com/reviewbridge/reviewbridge-api/internal/cache"
	"github.com/reviewbridge/reviewbridge-api/internal/handlers"
	"github.com/reviewbridge/reviewbridge-api/internal/middleware"
	"github.com/reviewbridge/reviewbridge-api/internal/repository"
	"github.com/reviewbridge/reviewbridge-api/internal/services"
	"github.com/reviewbridge/reviewbridge-api/pkg/db"
	"github.com/reviewbridge/reviewbridge-api/pkg/httpclient"
	"github.com/reviewbridge/reviewbridge-api/pkg/jwt"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"github.com/reviewbridge/reviewbridge-api/pkg/profiling"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"github.com/reviewbridge/reviewbridge-api/pkg/storage"
	"github.com/reviewbridge/reviewbridge-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	createLimitMessage  = "Too many reviews submitted from this address, please try again later."
	generalLimitMessage = "Too many requests from this address, please try again later."
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ReviewBridge API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
		zap.String("store", cfg.Shopify.StoreDomain),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(tracing.Config{
		Endpoint:          cfg.Observability.ExporterEndpoint,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceNamespace:  cfg.Observability.ServiceNamespace,
		ServiceVersion:    cfg.Observability.ServiceVersion,
		ServiceInstanceID: cfg.Observability.ServiceInstanceID,
		Environment:       cfg.Server.AppEnv,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Continuous profiling
	stopProfiler, err := profiling.InitProfiler(profiling.Config{
		Enabled:               cfg.Profiling.Enabled,
		Endpoint:              cfg.Profiling.Endpoint,
		AppName:               cfg.Profiling.AppName,
		SampleTypes:           cfg.Profiling.SampleTypes,
		UploadIntervalSeconds: cfg.Profiling.UploadIntervalSeconds,
	}, profiling.Identity{
		ServiceName: cfg.Observability.ServiceName,
		Namespace:   cfg.Observability.ServiceNamespace,
		Version:     cfg.Observability.ServiceVersion,
		InstanceID:  cfg.Observability.ServiceInstanceID,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Shopify Admin API client
	httpClient := httpclient.NewStandardClient(2 * cfg.Shopify.RequestTimeout())
	shopifyClient, err := shopify.NewClient(shopify.Config{
		StoreDomain:          cfg.Shopify.StoreDomain,
		AccessToken:          cfg.Shopify.AccessToken,
		APIVersion:           cfg.Shopify.APIVersion,
		RequestTimeout:       cfg.Shopify.RequestTimeout(),
		MaxRequestsPerSecond: cfg.Shopify.MaxRequestsPerSecond,
		RequestBurst:         cfg.Shopify.RequestBurst,
	}, httpClient)
	if err != nil {
		logger.Fatal("Failed to initialize Shopify client", zap.Error(err))
	}

	objectRepo := repository.NewReviewObjectRepository(shopifyClient, cfg.Reviews)

	// Optional relational mirror. Run ./migrate before enabling it.
	var mirror services.ReviewMirror
	if cfg.Database.Enabled() {
		pool, poolErr := db.NewPool(context.Background(), db.PoolConfig{
			URL:        cfg.Database.URL,
			MaxConns:   cfg.Database.MaxConns,
			MinConns:   cfg.Database.MinConns,
			CACertPath: cfg.Database.CACertPath,
		})
		if poolErr != nil {
			logger.Fatal("Failed to initialize database connection pool", zap.Error(poolErr))
		}
		defer db.Close(pool)
		mirror = repository.NewReviewMirrorRepository(pool)
		logger.Info("Review mirror enabled")
	} else {
		logger.Info("Review mirror disabled: DATABASE_URL not set")
	}

	// Optional media archive
	archiveCfg := storage.Config{
		AccessKeyID:     cfg.MediaArchive.AccessKeyID,
		SecretAccessKey: cfg.MediaArchive.SecretAccessKey,
		Bucket:          cfg.MediaArchive.Bucket,
		Endpoint:        cfg.MediaArchive.Endpoint,
		Region:          cfg.MediaArchive.Region,
		Prefix:          cfg.MediaArchive.Prefix,
	}
	var archive services.MediaArchiver
	if archiveCfg.Enabled() {
		mediaArchive, archiveErr := storage.NewMediaArchive(archiveCfg)
		if archiveErr != nil {
			logger.Fatal("Failed to initialize media archive", zap.Error(archiveErr))
		}
		archive = mediaArchive
	}

	statsCache := cache.NewStatsCache(cfg.Cache.StatsTTLSeconds)
	if !statsCache.Enabled() {
		logger.Warn("Stats cache is DISABLED - every stats request reads the store")
	}

	// Initialize services
	mediaService := services.NewMediaService(shopifyClient, archive)
	reviewService := services.NewReviewService(objectRepo, mirror, mediaService, statsCache, cfg, httpClient)

	// Initialize handlers
	exposeDetail := cfg.IsDevelopment()
	if err := handlers.RegisterBindingValidations(); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}
	reviewHandler := handlers.NewReviewHandler(reviewService, exposeDetail)
	healthHandler := handlers.NewHealthHandler()

	var tokenManager *jwt.TokenManager
	if cfg.Auth.AdminJWTSecret != "" {
		tokenManager = jwt.NewTokenManager(cfg.Auth.AdminJWTSecret, cfg.Auth.AdminJWTIssuer, 0)
	}

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(handlers.Recovery(exposeDetail))
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))

	allowedOrigins := cfg.Server.AllowedOrigins
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader, "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		if cfg.IsDevelopment() {
			allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
		}
		corsCfg.AllowOrigins = allowedOrigins
	}
	router.Use(cors.New(corsCfg))

	// Per-address limits: 20 reviews/hour, 100 requests per 15 minutes overall
	createLimiter := middleware.NewRateLimiter("create",
		cfg.RateLimit.CreatePerHour, time.Hour, createLimitMessage)
	defer createLimiter.Stop()
	generalWindow := time.Duration(cfg.RateLimit.GeneralWindowMinutes) * time.Minute
	generalLimiter := middleware.NewRateLimiter("general",
		cfg.RateLimit.GeneralPerWindow, generalWindow, generalLimitMessage)
	defer generalLimiter.Stop()

	// Operational endpoints
	router.GET("/health", healthHandler.Healthcheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	reviews := router.Group("/api/reviews")
	handlers.RegisterReviewRoutes(reviews, reviewHandler, handlers.RouteMiddleware{
		General:   generalLimiter.Middleware(),
		Create:    createLimiter.Middleware(),
		BodyLimit: middleware.BodySizeLimitMiddleware(middleware.MaxReviewBodySize),
		Private:   middleware.NoStoreMiddleware(),
		Admin:     middleware.AdminAuthMiddleware(tokenManager),
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second, // media bodies can be ~14MB
		WriteTimeout:      90 * time.Second, // create spans several Shopify calls
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
