// Package entity defines the core domain entities for the recommendation
// subsystem. Catalog and user entities appear here only as read-only
// projections of the data owned by the external CRUD subsystems; the
// recommendation tables and training job records are owned by this module.
package entity

import "time"

// Product is the read-only projection of a catalog product used for
// recommendation hydration and the latest-products fallback.
type Product struct {
	ID           int64
	Name         string
	Price        float64
	CategoryID   int64
	CategoryName string
	ImageURL     string
	IsActive     bool
	CreatedAt    time.Time
}

// User is the read-only projection of a shop user. Only existence
// matters to the recommendation read path.
type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}
