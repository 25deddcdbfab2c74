// Package recommend implements the online recommendation read path:
// similarity lookups and personalized lists with a layered fallback
// policy, plus the admin-facing training trigger and history queries.
package recommend

import "errors"

// Sentinel errors for recommendation serving operations.
var (
	// ErrProductNotFound indicates that the target product does not
	// exist or is not active.
	ErrProductNotFound = errors.New("product not found or inactive")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrJobNotFound indicates that the requested training job record
	// does not exist.
	ErrJobNotFound = errors.New("training job not found")

	// ErrInvalidID indicates a non-positive entity ID.
	ErrInvalidID = errors.New("invalid ID")
)
