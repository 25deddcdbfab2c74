// Package scheduler wraps the cron runner in an explicit lifecycle
// object: register once, start, stop. It exists so the periodic
// training trigger is a component with a testable start/stop contract
// instead of ambient global scheduler state.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sentinel errors for scheduler lifecycle violations.
var (
	// ErrAlreadyRegistered indicates that a job is already bound to
	// this scheduler. One scheduler drives exactly one job.
	ErrAlreadyRegistered = errors.New("job already registered")

	// ErrNotRegistered indicates Start was called before Register.
	ErrNotRegistered = errors.New("no job registered")
)

// Scheduler runs one registered job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron

	mu         sync.Mutex
	registered bool
	started    bool
}

// New creates a Scheduler in the given IANA timezone. An invalid
// timezone falls back to UTC with a warning rather than failing,
// matching the worker's fail-open configuration strategy.
func New(timezone string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Warn("invalid scheduler timezone, using UTC",
			slog.String("timezone", timezone),
			slog.Any("error", err))
		loc = time.UTC
	}
	return &Scheduler{cron: cron.New(cron.WithLocation(loc))}
}

// Register binds the job to the schedule. A second registration is an
// error: the guard keeps a restart/reload path from stacking duplicate
// triggers onto one scheduler.
func (s *Scheduler) Register(schedule string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registered {
		return ErrAlreadyRegistered
	}
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.registered = true
	slog.Info("job registered", slog.String("schedule", schedule))
	return nil
}

// Start begins periodic execution. Calling Start again is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registered {
		return ErrNotRegistered
	}
	if s.started {
		return nil
	}
	s.cron.Start()
	s.started = true
	slog.Info("scheduler started")
	return nil
}

// Stop halts scheduling and waits for a running job to finish, up to
// the context deadline. Stopping an unstarted scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	done := s.cron.Stop().Done()
	s.mu.Unlock()

	select {
	case <-done:
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}
