package entity

import "time"

// Rating is a single explicit product rating (1-5) left by a user.
type Rating struct {
	UserID    int64
	ProductID int64
	Score     float64
	CreatedAt time.Time
}

// View is a single product page view event.
type View struct {
	UserID    int64
	ProductID int64
	ViewedAt  time.Time
}

// Purchase is one order line item joined to its parent order.
// Orders with status CANCELLED are excluded at query time.
type Purchase struct {
	UserID    int64
	ProductID int64
	Quantity  int
	OrderedAt time.Time
}

// InteractionSet bundles the three raw interaction signals loaded for
// one training run. It is transient: loaded per run, never persisted.
type InteractionSet struct {
	Ratings   []Rating
	Views     []View
	Purchases []Purchase
}

// Empty reports whether no signal of any kind was loaded.
func (s InteractionSet) Empty() bool {
	return len(s.Ratings) == 0 && len(s.Views) == 0 && len(s.Purchases) == 0
}

// Total returns the number of raw interaction rows across all signals.
func (s InteractionSet) Total() int {
	return len(s.Ratings) + len(s.Views) + len(s.Purchases)
}
