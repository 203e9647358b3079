package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"go.uber.org/zap"
)

// objectPutter is the slice of the S3 API the archive needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config describes an S3-compatible bucket
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	Region          string
	Prefix          string
}

// Enabled reports whether enough settings are present to build an archive
func (c Config) Enabled() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// MediaArchive keeps a copy of every submitted media file in a bucket
type MediaArchive struct {
	client   objectPutter
	bucket   string
	endpoint string
	prefix   string
}

// NewMediaArchive creates an archive backed by an S3-compatible bucket
func NewMediaArchive(cfg Config) (*MediaArchive, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("media archive requires access key, secret and bucket")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	logger.Info("Media archive initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", region))

	return newMediaArchive(s3.New(opts), cfg), nil
}

func newMediaArchive(client objectPutter, cfg Config) *MediaArchive {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://s3.amazonaws.com"
	}
	return &MediaArchive{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: endpoint,
		prefix:   strings.Trim(cfg.Prefix, "/"),
	}
}

// Key builds a unique object key: <prefix>/<productId>/<kind>/<uuid>-<name>
func (a *MediaArchive) Key(productID int64, kind, filename string) string {
	return path.Join(a.prefix, fmt.Sprintf("%d", productID), kind, uuid.NewString()+"-"+path.Base(filename))
}

// Put stores data under key and returns the object URL
func (a *MediaArchive) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	start := time.Now()
	const operation = "putObject"

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})

	duration := metrics.MeasureDuration(start)
	status := metrics.Outcome(err)
	metrics.MediaArchiveRequestDuration.WithLabelValues(operation, status).Observe(duration)

	if err != nil {
		logger.LogAPICall(ctx, "media_archive", operation, status, duration,
			zap.Error(err),
			zap.String("key", key))
		return "", fmt.Errorf("failed to archive media: %w", err)
	}

	logger.LogAPICall(ctx, "media_archive", operation, status, duration,
		zap.String("key", key),
		zap.Int("size_bytes", len(data)))

	return fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucket, key), nil
}
