package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reviewbridge/reviewbridge-api/pkg/media"
)

// MaxReviewBodySize fits a submission carrying two base64 media payloads at
// the size limit, plus the text fields
const MaxReviewBodySize int64 = 2*((media.MaxSize+2)/3*4) + 64<<10

// BodySizeLimitMiddleware limits the size of request bodies
func BodySizeLimitMiddleware(maxBodySize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBodySize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"message": "Request body too large",
			})
			return
		}

		// Bodies without a declared length are cut off while reading
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

		c.Next()
	}
}
