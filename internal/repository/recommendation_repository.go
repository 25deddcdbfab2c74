package repository

import (
	"context"

	"shop-reco/internal/domain/entity"
)

// SimilarityRepository persists the directed product-similarity pairs
// derived from the item factor matrix.
type SimilarityRepository interface {
	// ListForProduct returns stored similarity rows for the product,
	// ordered by similarity score descending, limited.
	ListForProduct(ctx context.Context, productID int64, limit int) ([]*entity.ProductSimilarity, error)
	// ReplaceAll atomically replaces the entire table content with rows.
	// Delete and insert run in a single transaction so concurrent
	// readers never observe the cleared table.
	ReplaceAll(ctx context.Context, rows []entity.ProductSimilarity) error
}

// UserRecommendationRepository persists the per-user top-N
// recommendation rows.
type UserRecommendationRepository interface {
	// ListForUser returns stored recommendation rows for the user,
	// ordered by rank ascending, limited.
	ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.UserRecommendation, error)
	// ReplaceAll atomically replaces the entire table content with rows
	// in a single transaction.
	ReplaceAll(ctx context.Context, rows []entity.UserRecommendation) error
}

// ItemFactorRepository persists the per-product factor vectors as a
// model artifact. Serving never reads this table; it exists for
// diagnostics and offline inspection.
type ItemFactorRepository interface {
	// ReplaceAll replaces all stored factor vectors in one transaction.
	ReplaceAll(ctx context.Context, factors []ItemFactor) error
}

// ItemFactor is one persisted factor vector.
type ItemFactor struct {
	ProductID int64
	Factors   []float32
}
