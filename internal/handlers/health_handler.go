package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
)

type HealthHandler struct {
	now func() time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	c.JSON(http.StatusOK, models.HealthResponse{
		Success:   true,
		Message:   "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
