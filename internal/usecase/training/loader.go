package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/repository"
)

// DefaultWindow is the interaction lookback applied when the caller
// does not supply an explicit window.
const DefaultWindow = 180 * 24 * time.Hour

// DataLoader pulls the raw interaction signals for one training window.
// It is read-only and does not retry: data-source errors propagate to
// the orchestrator.
type DataLoader struct {
	Interactions repository.InteractionRepository
	// Window is the lookback applied when Load receives zero times.
	// Zero means DefaultWindow.
	Window time.Duration

	// now is overridable for tests.
	now func() time.Time
}

// NewDataLoader creates a DataLoader with the given lookback window.
func NewDataLoader(interactions repository.InteractionRepository, window time.Duration) *DataLoader {
	if window <= 0 {
		window = DefaultWindow
	}
	return &DataLoader{
		Interactions: interactions,
		Window:       window,
		now:          time.Now,
	}
}

// Load fetches ratings, views, and purchases within [start, end].
// A zero end defaults to now; a zero start defaults to end minus the
// configured window.
func (l *DataLoader) Load(ctx context.Context, start, end time.Time) (entity.InteractionSet, error) {
	nowFn := l.now
	if nowFn == nil {
		nowFn = time.Now
	}
	if end.IsZero() {
		end = nowFn()
	}
	if start.IsZero() {
		window := l.Window
		if window <= 0 {
			window = DefaultWindow
		}
		start = end.Add(-window)
	}

	// The three signal queries are independent, so they run
	// concurrently; each goroutine writes only its own field.
	var set entity.InteractionSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if set.Ratings, err = l.Interactions.RatingsBetween(gctx, start, end); err != nil {
			return fmt.Errorf("load ratings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if set.Views, err = l.Interactions.ViewsBetween(gctx, start, end); err != nil {
			return fmt.Errorf("load views: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if set.Purchases, err = l.Interactions.PurchasesBetween(gctx, start, end); err != nil {
			return fmt.Errorf("load purchases: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return entity.InteractionSet{}, err
	}

	slog.Info("interaction data loaded",
		slog.Time("window_start", start),
		slog.Time("window_end", end),
		slog.Int("ratings", len(set.Ratings)),
		slog.Int("views", len(set.Views)),
		slog.Int("purchases", len(set.Purchases)))

	return set, nil
}
