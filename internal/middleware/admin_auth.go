package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/pkg/jwt"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"go.uber.org/zap"
)

// StaffClaimsKey is the gin context key holding *jwt.StaffClaims of an
// authenticated moderator
const StaffClaimsKey = "staff_claims"

// AdminAuthMiddleware requires a bearer token with the admin role. A nil
// token manager leaves moderation routes open, which is only acceptable
// when the API sits behind an authenticating gateway.
func AdminAuthMiddleware(tm *jwt.TokenManager) gin.HandlerFunc {
	if tm == nil {
		logger.Warn("ADMIN_JWT_SECRET is not set, moderation endpoints are unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		claims, err := tm.ValidateToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token has expired"
			}
			logger.Warn("Admin token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err))
			abortUnauthorized(c, msg)
			return
		}

		if claims.Role != jwt.RoleAdmin {
			logger.Warn("Admin route denied",
				zap.String("subject", claims.Subject),
				zap.String("role", claims.Role))
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Message: "Insufficient permissions",
			})
			return
		}

		c.Set(StaffClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="reviews"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Message: message,
	})
}
