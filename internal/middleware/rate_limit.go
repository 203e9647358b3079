package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"go.uber.org/zap"
)

const visitorCleanupInterval = time.Minute

// RateLimiter admits at most limit requests per client address in any
// sliding window. Each address keeps a ring of its last limit admit times;
// a request is rejected while the oldest of them is still inside the window.
// Rejected requests do not take a slot.
type RateLimiter struct {
	name     string
	message  string
	limit    int
	window   time.Duration
	visitors map[string]*visitor
	mu       sync.Mutex
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	admits []time.Time
	next   int
	filled int
}

// allow records now when the visitor still has room in the window
func (v *visitor) allow(now time.Time, window time.Duration) bool {
	if v.filled == len(v.admits) {
		if now.Sub(v.admits[v.next]) < window {
			return false
		}
	} else {
		v.filled++
	}
	v.admits[v.next] = now
	v.next = (v.next + 1) % len(v.admits)
	return true
}

func (v *visitor) newest() time.Time {
	return v.admits[(v.next+len(v.admits)-1)%len(v.admits)]
}

// NewRateLimiter creates a limiter admitting limit requests per window for
// each address. A non-positive limit disables it. name labels the rejection
// metric; message is returned in the 429 body.
func NewRateLimiter(name string, limit int, window time.Duration, message string) *RateLimiter {
	rl := &RateLimiter{
		name:     name,
		message:  message,
		limit:    limit,
		window:   window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go rl.cleanupVisitors()

	return rl
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{admits: make([]time.Time, rl.limit)}
		rl.visitors[ip] = v
	}

	return v.allow(rl.now(), rl.window)
}

// cleanupVisitors drops addresses whose latest admit has left the window
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(visitorCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.newest()) >= rl.window {
			delete(rl.visitors, ip)
		}
	}
}

// Middleware returns a Gin middleware function for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !rl.allow(ip) {
			metrics.RateLimitRejections.WithLabelValues(rl.name).Inc()
			logger.Warn("Rate limit exceeded",
				zap.String("limiter", rl.name),
				zap.String("client_ip", ip),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Success: false,
				Message: rl.message,
			})
			return
		}

		c.Next()
	}
}
