package services

import (
	"context"

	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/internal/repository"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
)

// ReviewObjectStore is the metaobject-backed review storage
type ReviewObjectStore interface {
	Create(ctx context.Context, handle string, fields []shopify.Field) (*models.ReviewRecord, error)
	Get(ctx context.Context, id string) (*models.ReviewRecord, error)
	Update(ctx context.Context, id string, fields []shopify.Field, status *shopify.ObjectStatus) (*models.ReviewRecord, error)
	Delete(ctx context.Context, id string) (string, error)
	List(ctx context.Context, first int, after string) ([]models.ReviewRecord, models.PageInfo, error)
	ProductReviewIDs(ctx context.Context, productID int64) ([]string, error)
	LinkToProduct(ctx context.Context, productID int64, objectID string) error
	UnlinkFromProduct(ctx context.Context, productID int64, objectID string) error
}

// ReviewMirror is the optional relational copy of reviews
type ReviewMirror interface {
	Insert(ctx context.Context, row *repository.MirrorRow) error
	SetApproved(ctx context.Context, objectID string, approved bool) (bool, error)
	Delete(ctx context.Context, objectID string) error
}

// StagedUploader is the platform side of the media pipeline
type StagedUploader interface {
	StageUpload(ctx context.Context, req shopify.StageRequest) (*shopify.StagedUploadTarget, error)
	UploadStaged(ctx context.Context, target *shopify.StagedUploadTarget, filename, mimeType string, data []byte) error
	RegisterFile(ctx context.Context, target *shopify.StagedUploadTarget) (*shopify.UploadedFile, error)
}

// MediaArchiver keeps a copy of every decoded upload
type MediaArchiver interface {
	Key(productID int64, kind, filename string) string
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// MediaUploader turns an inline payload into a platform file ID
type MediaUploader interface {
	Upload(ctx context.Context, kind string, productID int64, payload *models.MediaPayload) (string, error)
}

// ReviewServiceInterface defines the interface for review service operations
type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, sub *models.ReviewSubmission) (*models.CreateReviewResult, error)
	GetProductReviews(ctx context.Context, productID int64) ([]models.ReviewRecord, error)
	GetProductStats(ctx context.Context, productID int64) (*models.ReviewStats, error)
	ListReviews(ctx context.Context, q models.ReviewListQuery) (*models.ReviewPage, error)
	GetReview(ctx context.Context, id string) (*models.ReviewRecord, error)
	UpdateReview(ctx context.Context, id string, patch *models.ReviewPatch) (*models.ReviewRecord, error)
	DeleteReview(ctx context.Context, id string) (string, error)
	PublishReview(ctx context.Context, id string) (*models.ReviewRecord, error)
	PublishAllDrafts(ctx context.Context) (*models.PublishAllResult, error)
}

// Ensure implementations satisfy their interfaces
var _ ReviewServiceInterface = (*ReviewService)(nil)
var _ MediaUploader = (*MediaService)(nil)
var _ ReviewObjectStore = (*repository.ReviewObjectRepository)(nil)
var _ ReviewMirror = (*repository.ReviewMirrorRepository)(nil)
var _ StagedUploader = (*shopify.Client)(nil)
