package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/reviewbridge/reviewbridge-api/config"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
	"go.uber.org/zap"
)

const (
	// maxLinkAttempts bounds the compare-and-swap loop on the rating index
	maxLinkAttempts = 3

	ratingIndexType = "json"
)

// ReviewObjectRepository stores reviews as metaobjects and keeps each
// product's rating index metafield pointing at them
type ReviewObjectRepository struct {
	store      ObjectStore
	objectType string
	namespace  string
	key        string
}

// NewReviewObjectRepository creates a new review object repository
func NewReviewObjectRepository(store ObjectStore, cfg config.ReviewsConfig) *ReviewObjectRepository {
	return &ReviewObjectRepository{
		store:      store,
		objectType: cfg.MetaobjectType,
		namespace:  cfg.MetafieldNamespace,
		key:        cfg.MetafieldKey,
	}
}

// Create stores a new review as a draft
func (r *ReviewObjectRepository) Create(ctx context.Context, handle string, fields []shopify.Field) (*models.ReviewRecord, error) {
	obj, err := r.store.CreateMetaobject(ctx, shopify.CreateMetaobjectInput{
		Type:   r.objectType,
		Handle: handle,
		Fields: fields,
		Status: shopify.StatusDraft,
	})
	if err != nil {
		return nil, err
	}
	return models.ReviewFromMetaobject(obj), nil
}

// Get fetches one review; a missing object yields (nil, nil)
func (r *ReviewObjectRepository) Get(ctx context.Context, id string) (*models.ReviewRecord, error) {
	obj, err := r.store.GetMetaobject(ctx, id)
	if err != nil || obj == nil {
		return nil, err
	}
	return models.ReviewFromMetaobject(obj), nil
}

// Update patches fields and/or status
func (r *ReviewObjectRepository) Update(ctx context.Context, id string, fields []shopify.Field, status *shopify.ObjectStatus) (*models.ReviewRecord, error) {
	obj, err := r.store.UpdateMetaobject(ctx, id, fields, status)
	if err != nil {
		return nil, err
	}
	return models.ReviewFromMetaobject(obj), nil
}

// Delete removes a review and returns the deleted ID
func (r *ReviewObjectRepository) Delete(ctx context.Context, id string) (string, error) {
	return r.store.DeleteMetaobject(ctx, id)
}

// List returns one page of reviews of the configured type
func (r *ReviewObjectRepository) List(ctx context.Context, first int, after string) ([]models.ReviewRecord, models.PageInfo, error) {
	page, err := r.store.ListMetaobjects(ctx, r.objectType, first, after)
	if err != nil {
		return nil, models.PageInfo{}, err
	}

	records := make([]models.ReviewRecord, 0, len(page.Items))
	for i := range page.Items {
		records = append(records, *models.ReviewFromMetaobject(&page.Items[i]))
	}

	return records, models.PageInfo{
		HasNextPage: page.PageInfo.HasNextPage,
		EndCursor:   page.PageInfo.EndCursor,
	}, nil
}

// ProductReviewIDs returns the review IDs linked to a product
func (r *ReviewObjectRepository) ProductReviewIDs(ctx context.Context, productID int64) ([]string, error) {
	ids, _, err := r.readIndex(ctx, productID)
	return ids, err
}

// LinkToProduct appends objectID to the product's rating index. The write is
// conditional on the digest seen by the read and is retried on conflict.
func (r *ReviewObjectRepository) LinkToProduct(ctx context.Context, productID int64, objectID string) error {
	return r.rewriteIndex(ctx, productID, "link", func(ids []string) ([]string, bool) {
		if slices.Contains(ids, objectID) {
			return ids, false
		}
		return append(ids, objectID), true
	})
}

// UnlinkFromProduct removes objectID from the product's rating index
func (r *ReviewObjectRepository) UnlinkFromProduct(ctx context.Context, productID int64, objectID string) error {
	return r.rewriteIndex(ctx, productID, "unlink", func(ids []string) ([]string, bool) {
		i := slices.Index(ids, objectID)
		if i < 0 {
			return ids, false
		}
		return slices.Delete(ids, i, i+1), true
	})
}

// rewriteIndex runs a read-modify-write of the index. mutate reports whether
// anything changed; an unchanged index is not written.
func (r *ReviewObjectRepository) rewriteIndex(ctx context.Context, productID int64, action string, mutate func([]string) ([]string, bool)) error {
	for attempt := 1; attempt <= maxLinkAttempts; attempt++ {
		ids, digest, err := r.readIndex(ctx, productID)
		if err != nil {
			return err
		}

		next, changed := mutate(ids)
		if !changed {
			return nil
		}

		value, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode rating index: %w", err)
		}

		_, err = r.store.SetMetafield(ctx, shopify.SetMetafieldInput{
			OwnerID:       shopify.ProductGID(productID),
			Namespace:     r.namespace,
			Key:           r.key,
			Type:          ratingIndexType,
			Value:         string(value),
			CompareDigest: digest,
		})
		if err == nil {
			return nil
		}
		if !shopify.IsStaleObject(err) {
			return err
		}

		metrics.RatingIndexConflicts.Inc()
		logger.Warn("Rating index changed concurrently, retrying",
			zap.Int64("product_id", productID),
			zap.String("action", action),
			zap.Int("attempt", attempt))
	}

	return fmt.Errorf("rating index of product %d kept changing after %d attempts: %w",
		productID, maxLinkAttempts, pkgerrors.ErrConflict)
}

// readIndex returns the linked IDs and the digest of the stored value. An
// absent or unparsable index reads as empty.
func (r *ReviewObjectRepository) readIndex(ctx context.Context, productID int64) ([]string, string, error) {
	mf, err := r.store.GetProductMetafield(ctx, productID, r.namespace, r.key)
	if err != nil {
		return nil, "", err
	}
	if mf == nil || mf.Value == "" {
		return []string{}, "", nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(mf.Value), &ids); err != nil {
		logger.Warn("Unparsable rating index, treating as empty",
			zap.Int64("product_id", productID),
			zap.Error(err))
		return []string{}, mf.CompareDigest, nil
	}

	return ids, mf.CompareDigest, nil
}
