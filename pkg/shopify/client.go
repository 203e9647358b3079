package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reviewbridge/reviewbridge-api/pkg/circuitbreaker"
	"github.com/reviewbridge/reviewbridge-api/pkg/httpclient"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"github.com/reviewbridge/reviewbridge-api/pkg/retry"
	"github.com/reviewbridge/reviewbridge-api/pkg/tracing"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	maxErrorBody      = 4 << 10
)

// callMode selects the retry policy of a GraphQL operation
type callMode int

const (
	// modeIdempotent operations are safe to repeat after a transport failure
	modeIdempotent callMode = iota
	// modeOnce operations create something and are never repeated
	modeOnce
)

// Config holds the Admin API connection settings
type Config struct {
	StoreDomain    string
	AccessToken    string
	APIVersion     string
	RequestTimeout time.Duration
	// Endpoint overrides the URL derived from StoreDomain and APIVersion
	Endpoint string
	// MaxRequestsPerSecond paces outbound Admin API calls; zero leaves them unpaced
	MaxRequestsPerSecond float64
	RequestBurst         int
}

// Client talks to the Shopify Admin GraphQL API with circuit breaker and retry protection
type Client struct {
	endpoint       string
	accessToken    string
	httpClient     httpclient.Client
	requestTimeout time.Duration
	pacer          *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
}

// NewClient creates a new Admin API client
func NewClient(cfg Config, httpClient httpclient.Client) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("empty access token provided")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.StoreDomain == "" {
			return nil, fmt.Errorf("empty store domain provided")
		}
		domain := strings.TrimSuffix(strings.TrimPrefix(cfg.StoreDomain, "https://"), "/")
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, cfg.APIVersion)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	limit, burst := rate.Inf, cfg.RequestBurst
	if cfg.MaxRequestsPerSecond > 0 {
		limit = rate.Limit(cfg.MaxRequestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	cbConfig := circuitbreaker.DefaultConfig("shopify")
	cbConfig.IsSuccessful = func(err error) bool {
		// userErrors come from a healthy API and must not open the breaker
		return err == nil || IsRemoteValidation(err)
	}

	logger.Info("Shopify client initialized",
		zap.String("endpoint", endpoint),
		zap.Duration("request_timeout", timeout),
		zap.Float64("max_requests_per_second", cfg.MaxRequestsPerSecond))

	return &Client{
		endpoint:       endpoint,
		accessToken:    cfg.AccessToken,
		httpClient:     httpClient,
		requestTimeout: timeout,
		pacer:          rate.NewLimiter(limit, burst),
		circuitBreaker: circuitbreaker.NewCircuitBreaker(cbConfig),
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// execute runs one GraphQL document and decodes "data" into out
func (c *Client) execute(ctx context.Context, operation string, mode callMode, query string, variables map[string]any, out any) error {
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "shopify."+operation,
		attribute.String("shopify.operation", operation))

	retryConfig := retry.ShopifyConfig(retryable)
	if mode == modeOnce {
		retryConfig = retry.NoRetry()
	}

	err := retry.Do(ctx, retryConfig, operation, func() error {
		_, cbErr := circuitbreaker.Execute(c.circuitBreaker, func() (struct{}, error) {
			return struct{}{}, c.roundTrip(ctx, operation, query, variables, out)
		})
		if cbErr != nil && circuitbreaker.IsRejection(cbErr) {
			return &RemoteTransportError{Operation: operation, Err: cbErr}
		}
		return cbErr
	})

	duration := metrics.MeasureDuration(start)
	status := metrics.Outcome(err)
	metrics.ShopifyRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.ShopifyRequestTotal.WithLabelValues(operation, status).Inc()
	tracing.EndSpan(span, err)

	if err != nil {
		logger.LogAPICall(ctx, "shopify", operation, status, duration, zap.Error(err))
		return err
	}

	logger.LogAPICall(ctx, "shopify", operation, status, duration)
	return nil
}

// roundTrip performs a single HTTP exchange bounded by the per-call timeout.
// Time spent waiting on the pacer counts against that timeout.
func (c *Client) roundTrip(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if err := c.pacer.Wait(callCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &RemoteTransportError{Operation: operation, Err: fmt.Errorf("request pacing: %w", err)}
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteTransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RemoteTransportError{Operation: operation, StatusCode: resp.StatusCode, Throttled: true}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteTransportError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &RemoteTransportError{Operation: operation, StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}

	if len(envelope.Errors) > 0 {
		ues := make([]UserError, 0, len(envelope.Errors))
		for _, ge := range envelope.Errors {
			if ge.Extensions.Code == "THROTTLED" {
				return &RemoteTransportError{Operation: operation, StatusCode: resp.StatusCode, Throttled: true}
			}
			ues = append(ues, UserError{Message: ge.Message, Code: ge.Extensions.Code})
		}
		return &RemoteValidationError{Operation: operation, Errors: ues}
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &RemoteTransportError{Operation: operation, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected data shape: %w", err)}
	}

	return nil
}
