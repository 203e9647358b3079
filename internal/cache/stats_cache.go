package cache

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	approvedKeyPrefix = "reviews:approved:"
	cacheCheckPeriod  = time.Minute
	cacheName         = "approved_reviews"
)

// StatsCache keeps the approved reviews of each product for a short TTL so
// that listing and stats requests do not walk the rating index every time.
// A non-positive TTL disables caching.
type StatsCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewStatsCache creates a new approved-reviews cache
func NewStatsCache(ttlSeconds int) *StatsCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	return &StatsCache{
		cache: gocache.New(ttl, cacheCheckPeriod),
		ttl:   ttl,
	}
}

func approvedKey(productID int64) string {
	return approvedKeyPrefix + strconv.FormatInt(productID, 10)
}

// Enabled reports whether entries are retained
func (c *StatsCache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// Get returns the cached approved reviews of a product
func (c *StatsCache) Get(productID int64) ([]models.ReviewRecord, bool) {
	if !c.Enabled() {
		return nil, false
	}

	key := approvedKey(productID)
	data, found := c.cache.Get(key)
	if !found {
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
		return nil, false
	}

	records, ok := data.([]models.ReviewRecord)
	if !ok {
		logger.Error("Invalid cache data type", zap.String("key", key))
		c.cache.Delete(key)
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(cacheName).Inc()
	return records, true
}

// Set stores the approved reviews of a product
func (c *StatsCache) Set(productID int64, records []models.ReviewRecord) {
	if !c.Enabled() {
		return
	}
	c.cache.Set(approvedKey(productID), records, c.ttl)
}

// Invalidate drops the entry of one product
func (c *StatsCache) Invalidate(productID int64) {
	if !c.Enabled() {
		return
	}
	c.cache.Delete(approvedKey(productID))
	logger.Debug("Approved reviews cache invalidated", zap.Int64("product_id", productID))
}

// Flush drops every entry
func (c *StatsCache) Flush() {
	if !c.Enabled() {
		return
	}
	c.cache.Flush()
	logger.Info("Approved reviews cache flushed")
}

// ItemCount returns the number of cached products, expired ones included
func (c *StatsCache) ItemCount() int {
	if !c.Enabled() {
		return 0
	}
	return c.cache.ItemCount()
}
