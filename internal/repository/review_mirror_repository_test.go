package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMirror(t *testing.T) (*ReviewMirrorRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewReviewMirrorRepository(mock), mock
}

func sampleRow() *MirrorRow {
	return &MirrorRow{
		ObjectID:        "gid://shopify/Metaobject/1",
		ProductID:       42,
		Rating:          5,
		Title:           "Love it",
		AuthorName:      "Ana",
		AuthorEmail:     "ana@example.com",
		IsVerifiedBuyer: true,
		CreatedAt:       time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestReviewMirror_Insert(t *testing.T) {
	repo, mock := setupMirror(t)
	row := sampleRow()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(row.ObjectID, row.ProductID, row.Rating, row.Title, row.AuthorName,
			row.AuthorEmail, row.IsVerifiedBuyer, false, row.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Insert(context.Background(), row)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewMirror_InsertError(t *testing.T) {
	repo, mock := setupMirror(t)

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), sampleRow())

	assert.ErrorContains(t, err, "insert review mirror")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewMirror_SetApproved(t *testing.T) {
	repo, mock := setupMirror(t)

	mock.ExpectExec("UPDATE reviews").
		WithArgs("gid://shopify/Metaobject/1", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE reviews").
		WithArgs("gid://shopify/Metaobject/404", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	updated, err := repo.SetApproved(context.Background(), "gid://shopify/Metaobject/1", true)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.SetApproved(context.Background(), "gid://shopify/Metaobject/404", false)
	require.NoError(t, err)
	assert.False(t, updated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewMirror_Delete(t *testing.T) {
	repo, mock := setupMirror(t)

	mock.ExpectExec("DELETE FROM reviews").
		WithArgs("gid://shopify/Metaobject/1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), "gid://shopify/Metaobject/1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
