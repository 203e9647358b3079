package handlers

import "github.com/gin-gonic/gin"

// RouteMiddleware holds the per-route middleware of the review API. Nil
// entries are skipped.
type RouteMiddleware struct {
	General   gin.HandlerFunc
	Create    gin.HandlerFunc
	BodyLimit gin.HandlerFunc
	// Private marks moderation responses uncacheable
	Private gin.HandlerFunc
	Admin   gin.HandlerFunc
}

func chain(final gin.HandlerFunc, mws ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mws)+1)
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return append(out, final)
}

// RegisterReviewRoutes mounts the review API on group (normally /api/reviews)
func RegisterReviewRoutes(group *gin.RouterGroup, h *ReviewHandler, mw RouteMiddleware) {
	// Storefront
	group.POST("", chain(h.CreateReview, mw.General, mw.Create, mw.BodyLimit)...)
	group.GET("/product/:productId", chain(h.GetProductReviews, mw.General)...)
	group.GET("/stats/:productId", chain(h.GetProductStats, mw.General)...)

	// Moderation
	group.GET("", chain(h.ListReviews, mw.General, mw.Private, mw.Admin)...)
	group.POST("/publish-all-drafts", chain(h.PublishAllDrafts, mw.General, mw.Private, mw.Admin)...)
	group.GET("/:ratingId", chain(h.GetReview, mw.General, mw.Private, mw.Admin)...)
	group.PUT("/:ratingId", chain(h.UpdateReview, mw.General, mw.Private, mw.Admin, mw.BodyLimit)...)
	group.DELETE("/:ratingId", chain(h.DeleteReview, mw.General, mw.Private, mw.Admin)...)
	group.PUT("/:ratingId/publish", chain(h.PublishReview, mw.General, mw.Private, mw.Admin)...)
}
