package models

import "time"

// MediaPayload is an inline base64 (or data URI) encoded file
type MediaPayload struct {
	Data     string `json:"data" binding:"required,media_size"`
	MimeType string `json:"mimeType" binding:"required,media_type"`
	Filename string `json:"filename" binding:"omitempty,max=255"`
}

// ReviewSubmission is the body of POST /api/reviews
type ReviewSubmission struct {
	ProductID         int64         `json:"productId" binding:"required,gt=0"`
	Rating            int           `json:"rating" binding:"required,min=1,max=5"`
	Title             string        `json:"title" binding:"required,max=200"`
	Body              string        `json:"body" binding:"required,max=2000"`
	AuthorName        string        `json:"authorName" binding:"required,max=100"`
	AuthorEmail       string        `json:"authorEmail" binding:"required,email"`
	IsVerifiedBuyer   bool          `json:"isVerifiedBuyer"`
	AgeRange          string        `json:"ageRange" binding:"max=50"`
	SizePurchased     string        `json:"sizePurchased" binding:"max=50"`
	FitRating         int           `json:"fitRating" binding:"required,min=1,max=5"`
	ShippingRating    *int          `json:"shippingRating" binding:"omitempty,min=1,max=5"`
	RecommendsProduct *bool         `json:"recommendsProduct"`
	Image             *MediaPayload `json:"image"`
	Video             *MediaPayload `json:"video"`
}

// MediaRefs are the platform file IDs attached to a review
type MediaRefs struct {
	ImageID string
	VideoID string
}

// ReviewRecord is a review read back from the object store. Numeric and
// boolean fields are nil when the stored value is absent or unparsable.
type ReviewRecord struct {
	ID                string     `json:"id"`
	Handle            string     `json:"handle,omitempty"`
	Status            string     `json:"status,omitempty"`
	ProductID         *int64     `json:"productId"`
	Rating            *int       `json:"rating"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	AuthorName        string     `json:"authorName"`
	AuthorEmail       string     `json:"authorEmail,omitempty"`
	IsVerifiedBuyer   *bool      `json:"isVerifiedBuyer"`
	AgeRange          string     `json:"ageRange"`
	SizePurchased     string     `json:"sizePurchased"`
	FitRating         *int       `json:"fitRating"`
	ShippingRating    *int       `json:"shippingRating"`
	RecommendsProduct *bool      `json:"recommendsProduct"`
	IsApproved        *bool      `json:"isApproved"`
	CreatedAt         *time.Time `json:"createdAt"`
	Image             string     `json:"image,omitempty"`
	Video             string     `json:"video,omitempty"`
}

// Approved reports whether moderation has approved the review
func (r *ReviewRecord) Approved() bool {
	return r.IsApproved != nil && *r.IsApproved
}

// Public returns a copy safe for storefront consumers
func (r ReviewRecord) Public() ReviewRecord {
	r.AuthorEmail = ""
	return r
}

// ReviewPatch is the body of PUT /api/reviews/:ratingId. Nil fields are left untouched.
type ReviewPatch struct {
	Rating            *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Title             *string `json:"title" binding:"omitempty,min=1,max=200"`
	Body              *string `json:"body" binding:"omitempty,min=1,max=2000"`
	AuthorName        *string `json:"authorName" binding:"omitempty,min=1,max=100"`
	IsVerifiedBuyer   *bool   `json:"isVerifiedBuyer"`
	AgeRange          *string `json:"ageRange" binding:"omitempty,max=50"`
	SizePurchased     *string `json:"sizePurchased" binding:"omitempty,max=50"`
	FitRating         *int    `json:"fitRating" binding:"omitempty,min=1,max=5"`
	ShippingRating    *int    `json:"shippingRating" binding:"omitempty,min=1,max=5"`
	RecommendsProduct *bool   `json:"recommendsProduct"`
	IsApproved        *bool   `json:"isApproved"`
	Status            *string `json:"status" binding:"omitempty,oneof=ACTIVE DRAFT active draft"`
}

// ReviewStats aggregates the approved reviews of one product
type ReviewStats struct {
	ProductID          int64       `json:"productId"`
	TotalReviews       int         `json:"totalReviews"`
	AverageRating      float64     `json:"averageRating"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
	VerifiedBuyers     int         `json:"verifiedBuyers"`
	Recommendations    int         `json:"recommendations"`
	RecommendationRate int         `json:"recommendationRate"`
}

// CreateReviewResult is returned by POST /api/reviews
type CreateReviewResult struct {
	Review        *ReviewRecord `json:"review"`
	MediaWarnings []string      `json:"mediaWarnings,omitempty"`
}

// ReviewListQuery holds the admin listing parameters
type ReviewListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=250"`
	Cursor string `form:"cursor"`
}

// PageInfo is the cursor state returned with a listing
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// ReviewPage is one page of the admin listing
type ReviewPage struct {
	Reviews  []ReviewRecord `json:"reviews"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
	PageInfo PageInfo       `json:"pageInfo"`
}

// PublishOutcome is one line of the publish-all ledger
type PublishOutcome struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PublishAllResult summarises a publish-all-drafts run
type PublishAllResult struct {
	TotalProcessed int              `json:"totalProcessed"`
	Successful     int              `json:"successful"`
	Failed         int              `json:"failed"`
	Results        []PublishOutcome `json:"results"`
}
