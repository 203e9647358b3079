package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reviewbridge/reviewbridge-api/config"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/internal/repository"
	"github.com/reviewbridge/reviewbridge-api/internal/services"
	"github.com/reviewbridge/reviewbridge-api/pkg/httpclient"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"go.uber.org/zap"
)

// drafter is the slice of the review service this command drives
type drafter interface {
	PublishAllDrafts(ctx context.Context) (*models.PublishAllResult, error)
}

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall deadline of the run")
	flag.Parse()

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
		ServiceName: "reviewbridge-publish-drafts",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	httpClient := httpclient.NewStandardClient(2 * cfg.Shopify.RequestTimeout())
	client, err := shopify.NewClient(shopify.Config{
		StoreDomain:          cfg.Shopify.StoreDomain,
		AccessToken:          cfg.Shopify.AccessToken,
		APIVersion:           cfg.Shopify.APIVersion,
		RequestTimeout:       cfg.Shopify.RequestTimeout(),
		MaxRequestsPerSecond: cfg.Shopify.MaxRequestsPerSecond,
		RequestBurst:         cfg.Shopify.RequestBurst,
	}, httpClient)
	if err != nil {
		logger.Error("Failed to initialize Shopify client", zap.Error(err))
		os.Exit(1)
	}

	// No mirror or cache: publishing touches neither
	objects := repository.NewReviewObjectRepository(client, cfg.Reviews)
	svc := services.NewReviewService(objects, nil, services.NewMediaService(client, nil), nil, cfg, httpClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, svc, os.Stdout); err != nil {
		logger.Error("Publish-all-drafts failed", zap.Error(err))
		os.Exit(1)
	}
}

// run publishes every draft and writes the ledger as indented JSON. An
// interrupted run still writes the drafts handled so far before failing.
func run(ctx context.Context, svc drafter, out io.Writer) error {
	result, err := svc.PublishAllDrafts(ctx)
	if result == nil {
		return err
	}

	logger.Info("Publish-all-drafts finished",
		zap.Int("total_processed", result.TotalProcessed),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
		zap.Bool("interrupted", err != nil))

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return encErr
	}
	return err
}
