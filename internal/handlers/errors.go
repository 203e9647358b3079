package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"go.uber.org/zap"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends the failure envelope and attaches the error to the gin context
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, models.ErrorResponse{Success: false, Message: message})
}

// respondValidation sends a 400 with field-level messages
func respondValidation(c *gin.Context, fields []pkgerrors.FieldError, err error) {
	attachError(c, err)
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  fields,
	})
}

// respondServiceError maps a service error onto a status code. Remote
// rejections keep their messages; anything unexpected is a generic 500
// that only carries the cause when exposeDetail is set.
func respondServiceError(c *gin.Context, err error, exposeDetail bool) {
	var verr *pkgerrors.ValidationError
	var rv *shopify.RemoteValidationError

	switch {
	case errors.As(err, &verr):
		respondValidation(c, verr.Fields, err)
	case errors.Is(err, pkgerrors.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		respondError(c, http.StatusNotFound, "Review not found", err)
	case errors.Is(err, pkgerrors.ErrConflict):
		respondError(c, http.StatusConflict, "Review index changed concurrently, please retry", err)
	case errors.As(err, &rv):
		respondError(c, http.StatusInternalServerError, rv.Messages(), err)
	case shopify.IsTransport(err):
		respondInternal(c, "Store API unavailable", err, exposeDetail)
	default:
		respondInternal(c, "Internal server error", err, exposeDetail)
	}
}

func respondInternal(c *gin.Context, message string, err error, exposeDetail bool) {
	attachError(c, err)
	resp := models.ErrorResponse{Success: false, Message: message}
	if exposeDetail && err != nil {
		resp.Detail = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}

// Recovery turns panics into the generic failure envelope
func Recovery(exposeDetail bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := fmt.Errorf("panic: %v", recovered)
		logger.Error("Recovered from panic",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))
		respondInternal(c, "Internal server error", err, exposeDetail)
		c.Abort()
	})
}
