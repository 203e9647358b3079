package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reviewbridge/reviewbridge-api/config"
	"github.com/reviewbridge/reviewbridge-api/internal/cache"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	"github.com/reviewbridge/reviewbridge-api/internal/repository"
	pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"
	"github.com/reviewbridge/reviewbridge-api/pkg/httpclient"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"github.com/reviewbridge/reviewbridge-api/pkg/trigger"
	"go.uber.org/zap"
)

const (
	handlePrefix = "review-"

	defaultListLimit = 20

	// publishPageSize and publishBatchLimit bound one publish-all run
	publishPageSize   = 50
	publishBatchLimit = shopify.MaxPageSize
)

// ReviewService implements review submission, storefront reads and moderation
type ReviewService struct {
	objects    ReviewObjectStore
	mirror     ReviewMirror
	media      MediaUploader
	cache      *cache.StatsCache
	httpClient httpclient.Client
	triggerURL string
	now        func() time.Time
}

// NewReviewService creates a new review service instance. mirror may be nil.
func NewReviewService(
	objects ReviewObjectStore,
	mirror ReviewMirror,
	mediaUploader MediaUploader,
	statsCache *cache.StatsCache,
	cfg *config.Config,
	httpClient httpclient.Client,
) *ReviewService {
	return &ReviewService{
		objects:    objects,
		mirror:     mirror,
		media:      mediaUploader,
		cache:      statsCache,
		httpClient: httpClient,
		triggerURL: cfg.EventTriggers.ReviewCreatedTriggerURL,
		now:        time.Now,
	}
}

// CreateReview validates a submission, uploads its media, stores it as a
// draft and links it to the product. Media failures are reported as warnings
// and do not fail the submission.
func (s *ReviewService) CreateReview(ctx context.Context, sub *models.ReviewSubmission) (*models.CreateReviewResult, error) {
	start := time.Now()

	if err := models.Validate(sub); err != nil {
		metrics.ReviewSubmissions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	refs, warnings := s.uploadMedia(ctx, sub)

	fields := models.ReviewFields(sub, refs, s.now())
	rec, err := s.objects.Create(ctx, handlePrefix+uuid.NewString(), fields)
	if err != nil {
		metrics.ReviewSubmissions.WithLabelValues("create_failed").Inc()
		logger.Error("Failed to create review",
			zap.Int64("product_id", sub.ProductID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.objects.LinkToProduct(ctx, sub.ProductID, rec.ID); err != nil {
		metrics.ReviewSubmissions.WithLabelValues("link_failed").Inc()
		logger.Error("Failed to link review to product, removing it",
			zap.String("review_id", rec.ID),
			zap.Int64("product_id", sub.ProductID),
			zap.Error(err))
		if _, delErr := s.objects.Delete(ctx, rec.ID); delErr != nil {
			logger.Error("Failed to remove unlinked review",
				zap.String("review_id", rec.ID),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to link review to product: %w", err)
	}

	s.mirrorInsert(ctx, sub, rec)
	s.cache.Invalidate(sub.ProductID)
	trigger.CallAsync(s.triggerURL, rec.ID, s.httpClient)

	metrics.ReviewSubmissions.WithLabelValues("success").Inc()
	metrics.ReviewSubmissionDuration.Observe(metrics.MeasureDuration(start))
	logger.Info("Review created",
		zap.String("review_id", rec.ID),
		zap.Int64("product_id", sub.ProductID),
		zap.Int("rating", sub.Rating),
		zap.Int("media_warnings", len(warnings)))

	return &models.CreateReviewResult{Review: rec, MediaWarnings: warnings}, nil
}

func (s *ReviewService) uploadMedia(ctx context.Context, sub *models.ReviewSubmission) (models.MediaRefs, []string) {
	var refs models.MediaRefs
	var warnings []string

	if sub.Image != nil {
		id, err := s.media.Upload(ctx, MediaKindImage, sub.ProductID, sub.Image)
		if err != nil {
			warnings = append(warnings, mediaWarning(MediaKindImage, err))
		}
		refs.ImageID = id
	}
	if sub.Video != nil {
		id, err := s.media.Upload(ctx, MediaKindVideo, sub.ProductID, sub.Video)
		if err != nil {
			warnings = append(warnings, mediaWarning(MediaKindVideo, err))
		}
		refs.VideoID = id
	}

	return refs, warnings
}

func mediaWarning(kind string, err error) string {
	var mue *shopify.MediaUploadError
	if errors.As(err, &mue) {
		return fmt.Sprintf("%s was not attached (%s failed)", kind, mue.Phase)
	}
	return fmt.Sprintf("%s was not attached", kind)
}

func (s *ReviewService) mirrorInsert(ctx context.Context, sub *models.ReviewSubmission, rec *models.ReviewRecord) {
	if s.mirror == nil {
		return
	}

	createdAt := s.now().UTC()
	if rec.CreatedAt != nil {
		createdAt = *rec.CreatedAt
	}

	err := s.mirror.Insert(ctx, &repository.MirrorRow{
		ObjectID:        rec.ID,
		ProductID:       sub.ProductID,
		Rating:          sub.Rating,
		Title:           sub.Title,
		AuthorName:      sub.AuthorName,
		AuthorEmail:     sub.AuthorEmail,
		IsVerifiedBuyer: sub.IsVerifiedBuyer,
		IsApproved:      false,
		CreatedAt:       createdAt,
	})
	if err != nil {
		logger.Warn("Failed to mirror review", zap.String("review_id", rec.ID), zap.Error(err))
	}
}

// GetProductReviews returns the approved reviews of a product for storefront use
func (s *ReviewService) GetProductReviews(ctx context.Context, productID int64) ([]models.ReviewRecord, error) {
	records, err := s.approvedReviews(ctx, productID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ReviewRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.Public())
	}
	return out, nil
}

// GetProductStats aggregates the approved reviews of a product
func (s *ReviewService) GetProductStats(ctx context.Context, productID int64) (*models.ReviewStats, error) {
	records, err := s.approvedReviews(ctx, productID)
	if err != nil {
		return nil, err
	}

	stats := ComputeStats(records)
	stats.ProductID = productID
	return &stats, nil
}

// approvedReviews resolves the product's rating index. Linked objects that no
// longer exist are skipped.
func (s *ReviewService) approvedReviews(ctx context.Context, productID int64) ([]models.ReviewRecord, error) {
	if records, ok := s.cache.Get(productID); ok {
		return records, nil
	}

	ids, err := s.objects.ProductReviewIDs(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read product reviews: %w", err)
	}

	records := make([]models.ReviewRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.objects.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch review %s: %w", id, err)
		}
		if rec == nil {
			logger.Warn("Linked review no longer exists, prunable",
				zap.Int64("product_id", productID),
				zap.String("review_id", id))
			continue
		}
		if rec.Approved() {
			records = append(records, *rec)
		}
	}

	s.cache.Set(productID, records)
	return records, nil
}

// ListReviews returns one page of every review, approved or not
func (s *ReviewService) ListReviews(ctx context.Context, q models.ReviewListQuery) (*models.ReviewPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultListLimit
	}
	if q.Limit > shopify.MaxPageSize {
		q.Limit = shopify.MaxPageSize
	}

	records, info, err := s.objects.List(ctx, q.Limit, q.Cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return &models.ReviewPage{
		Reviews:  records,
		Page:     q.Page,
		Limit:    q.Limit,
		PageInfo: info,
	}, nil
}

// GetReview returns one review or ErrNotFound
func (s *ReviewService) GetReview(ctx context.Context, id string) (*models.ReviewRecord, error) {
	rec, err := s.objects.Get(ctx, shopify.MetaobjectGID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch review: %w", err)
	}
	if rec == nil {
		return nil, pkgerrors.NotFoundError("review")
	}
	return rec, nil
}

// UpdateReview applies a moderation patch
func (s *ReviewService) UpdateReview(ctx context.Context, id string, patch *models.ReviewPatch) (*models.ReviewRecord, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, pkgerrors.NewValidationError("body", "no fields to update")
	}

	var status *shopify.ObjectStatus
	if patch.Status != nil {
		st, err := shopify.ParseStatusInput(*patch.Status)
		if err != nil {
			return nil, pkgerrors.NewValidationError("status", err.Error())
		}
		status = &st
	}

	current, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.objects.Update(ctx, current.ID, models.PatchFields(patch), status)
	metrics.ReviewModerations.WithLabelValues("update", metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Error("Failed to update review", zap.String("review_id", current.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	if patch.IsApproved != nil {
		s.mirrorApproval(ctx, current.ID, *patch.IsApproved)
	}
	s.invalidate(current, updated)

	logger.Info("Review updated", zap.String("review_id", current.ID))
	return updated, nil
}

func (s *ReviewService) mirrorApproval(ctx context.Context, id string, approved bool) {
	if s.mirror == nil {
		return
	}

	found, err := s.mirror.SetApproved(ctx, id, approved)
	if err != nil {
		logger.Warn("Failed to mirror approval", zap.String("review_id", id), zap.Error(err))
		return
	}
	if !found {
		logger.Debug("Review has no mirror row", zap.String("review_id", id))
	}
}

// DeleteReview removes a review, its product link and its mirror row
func (s *ReviewService) DeleteReview(ctx context.Context, id string) (string, error) {
	current, err := s.GetReview(ctx, id)
	if err != nil {
		return "", err
	}

	deletedID, err := s.objects.Delete(ctx, current.ID)
	metrics.ReviewModerations.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Error("Failed to delete review", zap.String("review_id", current.ID), zap.Error(err))
		return "", fmt.Errorf("failed to delete review: %w", err)
	}

	if current.ProductID != nil {
		if err := s.objects.UnlinkFromProduct(ctx, *current.ProductID, current.ID); err != nil {
			logger.Warn("Failed to unlink deleted review",
				zap.String("review_id", current.ID),
				zap.Int64("product_id", *current.ProductID),
				zap.Error(err))
		}
	}
	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, current.ID); err != nil {
			logger.Warn("Failed to delete mirror row", zap.String("review_id", current.ID), zap.Error(err))
		}
	}
	s.invalidate(current, nil)

	logger.Info("Review deleted", zap.String("review_id", deletedID))
	return deletedID, nil
}

// PublishReview sets a review ACTIVE
func (s *ReviewService) PublishReview(ctx context.Context, id string) (*models.ReviewRecord, error) {
	current, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.publish(ctx, current.ID)
	if err != nil {
		return nil, err
	}

	s.invalidate(current, updated)
	return updated, nil
}

func (s *ReviewService) publish(ctx context.Context, id string) (*models.ReviewRecord, error) {
	active := shopify.StatusActive
	updated, err := s.objects.Update(ctx, id, nil, &active)
	metrics.ReviewModerations.WithLabelValues("publish", metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Error("Failed to publish review", zap.String("review_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to publish review: %w", err)
	}
	return updated, nil
}

// PublishAllDrafts republishes every review that is not positively ACTIVE.
// Individual failures are reported in the ledger, not as an error. When ctx
// ends mid-batch the ledger so far is returned together with ctx.Err().
func (s *ReviewService) PublishAllDrafts(ctx context.Context) (*models.PublishAllResult, error) {
	result := &models.PublishAllResult{Results: []models.PublishOutcome{}}

	cursor := ""
	seen := 0
	var interrupted error
paging:
	for seen < publishBatchLimit {
		pageSize := min(publishPageSize, publishBatchLimit-seen)
		items, info, err := s.objects.List(ctx, pageSize, cursor)
		if err != nil {
			if seen == 0 {
				return nil, fmt.Errorf("failed to list reviews: %w", err)
			}
			logger.Error("Stopped paging reviews", zap.Int("seen", seen), zap.Error(err))
			break
		}
		seen += len(items)

		for i := range items {
			if err := ctx.Err(); err != nil {
				interrupted = err
				break paging
			}
			if !s.needsPublish(ctx, &items[i]) {
				continue
			}

			outcome := models.PublishOutcome{ID: items[i].ID, Success: true}
			if _, err := s.publish(ctx, items[i].ID); err != nil {
				outcome.Success = false
				outcome.Error = err.Error()
				result.Failed++
			} else {
				result.Successful++
			}
			result.TotalProcessed++
			result.Results = append(result.Results, outcome)
		}

		if !info.HasNextPage || info.EndCursor == "" || len(items) == 0 {
			break
		}
		cursor = info.EndCursor
	}

	if result.Successful > 0 {
		s.cache.Flush()
	}

	if interrupted != nil {
		logger.Warn("Publish-all-drafts interrupted",
			zap.Int("processed", result.TotalProcessed),
			zap.Int("successful", result.Successful),
			zap.Int("failed", result.Failed),
			zap.Error(interrupted))
		return result, interrupted
	}

	logger.Info("Publish-all-drafts finished",
		zap.Int("processed", result.TotalProcessed),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed))
	return result, nil
}

// needsPublish classifies from the full record; when it cannot be fetched
// the status seen in the listing is used instead
func (s *ReviewService) needsPublish(ctx context.Context, item *models.ReviewRecord) bool {
	status := item.Status
	detail, err := s.objects.Get(ctx, item.ID)
	switch {
	case err != nil:
		logger.Warn("Failed to fetch review detail, using listed status",
			zap.String("review_id", item.ID),
			zap.Error(err))
	case detail == nil:
		return false
	default:
		status = detail.Status
	}
	return shopify.ParseObjectStatus(status).NeedsPublish()
}

func (s *ReviewService) invalidate(records ...*models.ReviewRecord) {
	for _, r := range records {
		if r != nil && r.ProductID != nil {
			s.cache.Invalidate(*r.ProductID)
		}
	}
}
