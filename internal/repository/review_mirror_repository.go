package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/reviewbridge/reviewbridge-api/pkg/metrics"
)

// MirrorRow is the relational copy of a review
type MirrorRow struct {
	ObjectID        string
	ProductID       int64
	Rating          int
	Title           string
	AuthorName      string
	AuthorEmail     string
	IsVerifiedBuyer bool
	IsApproved      bool
	CreatedAt       time.Time
}

// ReviewMirrorRepository keeps a Postgres copy of submitted reviews.
// The object store stays the source of truth.
type ReviewMirrorRepository struct {
	db DBTX
}

// NewReviewMirrorRepository creates a new mirror repository
func NewReviewMirrorRepository(db DBTX) *ReviewMirrorRepository {
	return &ReviewMirrorRepository{db: db}
}

// Insert stores a row; a row that already exists is left as is
func (r *ReviewMirrorRepository) Insert(ctx context.Context, row *MirrorRow) error {
	query := `
		INSERT INTO reviews (object_id, product_id, rating, title, author_name, author_email, is_verified_buyer, is_approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (object_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		row.ObjectID,
		row.ProductID,
		row.Rating,
		row.Title,
		row.AuthorName,
		row.AuthorEmail,
		row.IsVerifiedBuyer,
		row.IsApproved,
		row.CreatedAt,
	)
	metrics.MirrorWrites.WithLabelValues("insert", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("insert review mirror: %w", err)
	}

	return nil
}

// SetApproved propagates a moderation decision. It reports whether a row was updated.
func (r *ReviewMirrorRepository) SetApproved(ctx context.Context, objectID string, approved bool) (bool, error) {
	query := `
		UPDATE reviews
		SET is_approved = $2, updated_at = NOW()
		WHERE object_id = $1`

	tag, err := r.db.Exec(ctx, query, objectID, approved)
	metrics.MirrorWrites.WithLabelValues("set_approved", metrics.Outcome(err)).Inc()
	if err != nil {
		return false, fmt.Errorf("update review mirror approval: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes the row of a deleted review
func (r *ReviewMirrorRepository) Delete(ctx context.Context, objectID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE object_id = $1`, objectID)
	metrics.MirrorWrites.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("delete review mirror: %w", err)
	}

	return nil
}
