package repository

import (
	"context"

	"shop-reco/internal/domain/entity"
)

// TrainingHistoryRepository manages the append-only training job audit
// records. A record is created in RUNNING and closed exactly once.
type TrainingHistoryRepository interface {
	// Create inserts a new job record with status RUNNING and no end
	// time, returning the record with its assigned history ID.
	Create(ctx context.Context, triggeredBy string) (*entity.TrainingJob, error)
	// Finish applies the single terminal update: sets end time, status
	// (SUCCESS or FAILED), and message.
	Finish(ctx context.Context, historyID int64, status, message string) error
	// List returns job records ordered by start time descending, limited.
	List(ctx context.Context, limit int) ([]*entity.TrainingJob, error)
	// Get returns a single job record. Returns (nil, nil) if not found.
	Get(ctx context.Context, historyID int64) (*entity.TrainingJob, error)
}

// TrainingLock serializes destructive training runs. Implementations
// back it with a Postgres session advisory lock so the guard holds
// across processes, not only goroutines.
type TrainingLock interface {
	// TryAcquire attempts to take the training lock without blocking.
	// On success it returns acquired=true and a release function that
	// must be called when the run finishes. When the lock is held
	// elsewhere it returns acquired=false and a nil release.
	TryAcquire(ctx context.Context) (release func(), acquired bool, err error)
}
