package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"shop-reco/internal/repository"
)

// trainingLockKey is the advisory lock key shared by all processes that
// may run the training pipeline against the same database.
const trainingLockKey = 0x7265636f // "reco"

// TrainingLock implements the single-job guard with a Postgres session
// advisory lock. Session locks require a pinned connection; the lock is
// released by unlocking and returning the connection to the pool.
type TrainingLock struct {
	db *sql.DB
}

func NewTrainingLock(db *sql.DB) repository.TrainingLock {
	return &TrainingLock{db: db}
}

func (l *TrainingLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("TryAcquire: %w", err)
	}

	var acquired bool
	err = conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, trainingLockKey).
		Scan(&acquired)
	if err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("TryAcquire: %w", err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}

	release := func() {
		// Unlock on a fresh timeout: the run's context may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, trainingLockKey); err != nil {
			slog.Warn("failed to release training advisory lock", slog.Any("error", err))
		}
		_ = conn.Close()
	}
	return release, true, nil
}
