package middleware

import (
	"github.com/gin-gonic/gin"
)

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeadersMiddleware adds security headers to all HTTP responses.
// Strict-Transport-Security is only sent when hsts is true (production
// behind TLS).
func SecurityHeadersMiddleware(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")

		if hsts {
			c.Header("Strict-Transport-Security", hstsValue)
		}

		c.Next()
	}
}

// NoStoreMiddleware marks responses as uncacheable. Moderation routes carry
// customer emails and must not be kept by intermediaries.
func NoStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
