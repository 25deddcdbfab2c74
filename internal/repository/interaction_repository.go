// Package repository defines the persistence interfaces of the
// recommendation subsystem. Interaction and catalog interfaces are
// read-only projections over tables owned by the external CRUD
// subsystems; the similarity, recommendation, and training history
// interfaces cover the tables this module owns.
package repository

import (
	"context"
	"time"

	"shop-reco/internal/domain/entity"
)

// InteractionRepository loads raw interaction signals for a training
// window. All queries are read-only and filter by the given time range.
type InteractionRepository interface {
	// RatingsBetween returns explicit ratings created within [start, end].
	RatingsBetween(ctx context.Context, start, end time.Time) ([]entity.Rating, error)
	// ViewsBetween returns view events recorded within [start, end].
	ViewsBetween(ctx context.Context, start, end time.Time) ([]entity.View, error)
	// PurchasesBetween returns order line items joined to their parent
	// order date, excluding orders with status CANCELLED.
	PurchasesBetween(ctx context.Context, start, end time.Time) ([]entity.Purchase, error)
	// LatestViewByUser returns the user's most recent view event.
	// Returns (nil, nil) if the user has no view history.
	LatestViewByUser(ctx context.Context, userID int64) (*entity.View, error)
}
