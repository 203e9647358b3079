package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the registry served on /metrics
	Registry = prometheus.NewRegistry()

	// Buckets tuned for Shopify Admin API latencies (tens of ms to several seconds)
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21}

	// HTTP Metrics
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_rate_limited_total",
			Help: "Total number of requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	// Shopify Admin API client metrics
	ShopifyRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopify_client_operation_duration_seconds",
			Help:    "Shopify Admin API operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	ShopifyRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopify_client_operation_total",
			Help: "Total number of Shopify Admin API operations",
		},
		[]string{"operation", "status"},
	)

	// Media pipeline metrics
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbridge_media_uploads_total",
			Help: "Review media uploads by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	MediaArchiveRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_client_operation_duration_seconds",
			Help:    "Archive storage operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	// Cache Metrics
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	// Business Metrics
	ReviewSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbridge_review_submissions_total",
			Help: "Total review submissions by outcome",
		},
		[]string{"status"},
	)

	ReviewSubmissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewbridge_review_submission_duration_seconds",
			Help:    "End-to-end review submission duration in seconds",
			Buckets: CustomAPIBuckets,
		},
	)

	ReviewModerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbridge_review_moderations_total",
			Help: "Moderation actions by action and outcome",
		},
		[]string{"action", "status"},
	)

	RatingIndexConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewbridge_rating_index_conflicts_total",
			Help: "Compare-and-swap conflicts while linking reviews to products",
		},
	)

	MirrorWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewbridge_mirror_writes_total",
			Help: "Relational mirror writes by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	// Infrastructure Metrics
	GoRoutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

func init() {
	Registry.MustRegister(
		HTTPRequestDuration,
		HTTPRequestTotal,
		ActiveRequests,
		RateLimitRejections,
		ShopifyRequestDuration,
		ShopifyRequestTotal,
		MediaUploads,
		MediaArchiveRequestDuration,
		CacheHits,
		CacheMisses,
		ReviewSubmissions,
		ReviewSubmissionDuration,
		ReviewModerations,
		RatingIndexConflicts,
		MirrorWrites,
		GoRoutines,
		HeapAlloc,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// Outcome returns the status label for a metric given an error
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
