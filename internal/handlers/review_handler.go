package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/internal/services"
	pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
)

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	service      services.ReviewServiceInterface
	exposeDetail bool
}

// NewReviewHandler creates a new review handler. exposeDetail adds the
// underlying cause to 500 responses and must be off in production.
func NewReviewHandler(service services.ReviewServiceInterface, exposeDetail bool) *ReviewHandler {
	return &ReviewHandler{service: service, exposeDetail: exposeDetail}
}

// CreateReview handles POST /api/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req models.ReviewSubmission
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateReview(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	message := "Review submitted successfully"
	if len(result.MediaWarnings) > 0 {
		message = "Review submitted, some media could not be attached"
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: result, Message: message})
}

// GetProductReviews handles GET /api/reviews/product/:productId
func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	reviews, err := h.service.GetProductReviews(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"productId": productID,
			"reviews":   reviews,
			"total":     len(reviews),
		},
	})
}

// GetProductStats handles GET /api/reviews/stats/:productId
func (h *ReviewHandler) GetProductStats(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	stats, err := h.service.GetProductStats(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: stats})
}

// ListReviews handles GET /api/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	var q models.ReviewListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.respondBindError(c, err)
		return
	}

	page, err := h.service.ListReviews(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: page})
}

// GetReview handles GET /api/reviews/:ratingId
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := ratingIDParam(c)
	if !ok {
		return
	}

	rec, err := h.service.GetReview(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: rec})
}

// UpdateReview handles PUT /api/reviews/:ratingId
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, ok := ratingIDParam(c)
	if !ok {
		return
	}

	var patch models.ReviewPatch
	if !h.bindJSON(c, &patch) {
		return
	}

	rec, err := h.service.UpdateReview(c.Request.Context(), id, &patch)
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: rec, Message: "Review updated successfully"})
}

// DeleteReview handles DELETE /api/reviews/:ratingId
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, ok := ratingIDParam(c)
	if !ok {
		return
	}

	deletedID, err := h.service.DeleteReview(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"deletedId": deletedID},
		Message: "Review deleted successfully",
	})
}

// PublishReview handles PUT /api/reviews/:ratingId/publish
func (h *ReviewHandler) PublishReview(c *gin.Context) {
	id, ok := ratingIDParam(c)
	if !ok {
		return
	}

	rec, err := h.service.PublishReview(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: rec, Message: "Review published successfully"})
}

// PublishAllDrafts handles POST /api/reviews/publish-all-drafts
func (h *ReviewHandler) PublishAllDrafts(c *gin.Context) {
	result, err := h.service.PublishAllDrafts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, h.exposeDetail)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: "Processed " + strconv.Itoa(result.TotalProcessed) + " draft reviews",
	})
}

func (h *ReviewHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.respondBindError(c, err)
		return false
	}
	return true
}

func (h *ReviewHandler) respondBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, "Request body too large", err)
		return
	}
	if fields := ParseBindErrors(err); len(fields) > 0 {
		respondValidation(c, fields, err)
		return
	}
	respondError(c, http.StatusBadRequest, "Invalid request body", err)
}

func productIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || id <= 0 {
		respondValidation(c, []pkgerrors.FieldError{{
			Field:   "productId",
			Message: "productId must be a positive integer",
		}}, err)
		return 0, false
	}
	return id, true
}

// ratingIDParam takes the numeric metaobject ID. A full GID is accepted too
// but only reaches a handler when the router matches on the raw path, since
// its slashes otherwise split the route.
func ratingIDParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("ratingId"))
	if !shopify.IsMetaobjectID(id) {
		respondValidation(c, []pkgerrors.FieldError{{
			Field:   "ratingId",
			Message: "ratingId must be a numeric review ID",
		}}, nil)
		return "", false
	}
	return id, true
}
