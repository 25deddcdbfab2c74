// Package training implements the offline recommendation pipeline:
// loading raw interaction signals, fusing them into a sparse matrix,
// factorizing it into low-rank embeddings, and replacing the derived
// similarity and recommendation tables. The Job orchestrator sequences
// the stages and records an audit record per run.
package training

import "errors"

// Sentinel errors for training pipeline operations.
var (
	// ErrTrainingInProgress indicates that another training run holds
	// the training lock. The conflicting run may be in this process or
	// another one; the lock is a database advisory lock.
	ErrTrainingInProgress = errors.New("another training job is running")

	// ErrModelEmpty indicates that a stage requiring a trained model
	// received one with empty factor arrays.
	ErrModelEmpty = errors.New("model has no factors")
)
