package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/reviewbridge/reviewbridge-api/pkg/shopify"
)

// ObjectStore is the part of the Admin API client the review repository uses.
// *shopify.Client implements it.
type ObjectStore interface {
	CreateMetaobject(ctx context.Context, in shopify.CreateMetaobjectInput) (*shopify.Metaobject, error)
	UpdateMetaobject(ctx context.Context, id string, fields []shopify.Field, status *shopify.ObjectStatus) (*shopify.Metaobject, error)
	DeleteMetaobject(ctx context.Context, id string) (string, error)
	GetMetaobject(ctx context.Context, id string) (*shopify.Metaobject, error)
	ListMetaobjects(ctx context.Context, objectType string, first int, after string) (*shopify.MetaobjectPage, error)

	// GetProductMetafield returns nil when the metafield was never written
	GetProductMetafield(ctx context.Context, productID int64, namespace, key string) (*shopify.Metafield, error)
	SetMetafield(ctx context.Context, in shopify.SetMetafieldInput) (*shopify.Metafield, error)
}

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
