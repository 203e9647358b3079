package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/reviewbridge/reviewbridge-api/config"
	"github.com/reviewbridge/reviewbridge-api/pkg/db"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", string(db.Up), "migration direction: up or down")
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()

	dir := db.Direction(*direction)
	if dir != db.Up && dir != db.Down {
		fmt.Fprintf(os.Stderr, "invalid -direction %q (want up or down)\n", *direction)
		os.Exit(2)
	}

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
		ServiceName: "reviewbridge-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !cfg.Database.Enabled() {
		logger.Error("DATABASE_URL is not set, nothing to migrate")
		os.Exit(1)
	}

	logger.Info("Starting database migrations",
		zap.String("database", maskDatabaseURL(cfg.Database.URL)),
		zap.String("direction", string(dir)))

	if err := db.RunMigrations(cfg.Database.URL, cfg.Database.CACertPath, *source, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Database migrations completed successfully")
}

// maskDatabaseURL hides the password of a database URL for logging
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
