package repository

import (
	"context"

	"shop-reco/internal/domain/entity"
)

// ProductRepository is the read-only projection over the catalog tables
// used for validation, hydration, and the latest-products fallback.
type ProductRepository interface {
	// Get returns a product by ID with its category name and primary
	// image. Returns (nil, nil) if the product does not exist.
	Get(ctx context.Context, id int64) (*entity.Product, error)
	// GetByIDs returns the active products among ids, hydrated with
	// category name and primary image. Missing IDs are silently skipped.
	GetByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error)
	// Latest returns the most recently created active products,
	// newest first.
	Latest(ctx context.Context, limit int) ([]*entity.Product, error)
	// ListActive returns all active products with category metadata.
	ListActive(ctx context.Context) ([]*entity.Product, error)
}

// UserRepository is the read-only projection over the users table.
type UserRepository interface {
	// Exists reports whether a user with the given ID exists.
	Exists(ctx context.Context, id int64) (bool, error)
}
