package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/observability/metrics"
	"shop-reco/internal/observability/tracing"
	"shop-reco/internal/repository"
)

// Result is the structured outcome of one pipeline run. Run never
// returns an error: callers branch on Status and Err as data.
type Result struct {
	HistoryID   int64
	Status      string
	Message     string
	TriggeredBy string
	Duration    time.Duration
	Metrics     *Metrics
	Err         error
}

// Succeeded reports whether the run reached SUCCESS.
func (r Result) Succeeded() bool {
	return r.Status == entity.JobStatusSuccess
}

// Job sequences Loader, Preprocessor, Trainer, Evaluator, and Writer,
// recording exactly one RUNNING audit record per run and closing it
// with exactly one terminal update. Destructive runs are serialized
// through an advisory lock; a run that cannot take the lock records
// FAILED and returns without touching the derived tables.
type Job struct {
	Loader       *DataLoader
	Preprocessor Preprocessor
	Trainer      Trainer
	Evaluator    Evaluator
	Writer       *ResultWriter
	History      repository.TrainingHistoryRepository
	Lock         repository.TrainingLock

	// Rank is the configured latent dimension, clamped per run by the
	// trainer against the matrix shape.
	Rank int

	now func() time.Time
}

// NewJob wires the pipeline stages into an orchestrator.
func NewJob(
	loader *DataLoader,
	trainer Trainer,
	writer *ResultWriter,
	history repository.TrainingHistoryRepository,
	lock repository.TrainingLock,
	rank int,
) *Job {
	return &Job{
		Loader:  loader,
		Trainer: trainer,
		Writer:  writer,
		History: history,
		Lock:    lock,
		Rank:    rank,
		now:     time.Now,
	}
}

// RunScheduled executes one run on behalf of the periodic scheduler.
func (j *Job) RunScheduled(ctx context.Context) Result {
	return j.Run(ctx, entity.TriggeredBySchedule)
}

// RunManual executes one run on behalf of an admin.
func (j *Job) RunManual(ctx context.Context, adminID string) Result {
	return j.Run(ctx, entity.TriggeredByAdmin(adminID))
}

// Run executes the full pipeline once. Every failure mode, including
// lock contention and the audit record itself failing to persist, is
// converted into a Result; nothing escapes to the caller as an error.
func (j *Job) Run(ctx context.Context, triggeredBy string) Result {
	nowFn := j.now
	if nowFn == nil {
		nowFn = time.Now
	}
	start := nowFn()
	logger := slog.Default().With(slog.String("triggered_by", triggeredBy))

	ctx, span := tracing.GetTracer().Start(ctx, "training.run")
	defer span.End()

	release, acquired, err := j.Lock.TryAcquire(ctx)
	if err != nil {
		return j.failWithoutRecord(logger, start, triggeredBy, fmt.Errorf("acquire training lock: %w", err))
	}
	if !acquired {
		logger.Warn("training lock held, refusing to run")
		res := Result{
			Status:      entity.JobStatusFailed,
			Message:     ErrTrainingInProgress.Error(),
			TriggeredBy: triggeredBy,
			Err:         ErrTrainingInProgress,
		}
		// Record the refused attempt so admins see it in the history.
		if job, createErr := j.History.Create(ctx, triggeredBy); createErr == nil {
			res.HistoryID = job.HistoryID
			j.finish(ctx, logger, job.HistoryID, entity.JobStatusFailed, res.Message)
		} else {
			logger.Error("failed to create training job record", slog.Any("error", createErr))
		}
		res.Duration = nowFn().Sub(start)
		metrics.RecordTrainingRun(entity.JobStatusFailed, res.Duration)
		return res
	}
	defer release()

	job, err := j.History.Create(ctx, triggeredBy)
	if err != nil {
		return j.failWithoutRecord(logger, start, triggeredBy, fmt.Errorf("create training job record: %w", err))
	}
	logger = logger.With(slog.Int64("history_id", job.HistoryID))
	logger.Info("training job started")

	evalMetrics, err := j.runStages(ctx)
	elapsed := nowFn().Sub(start)

	if err != nil {
		logger.Error("training job failed",
			slog.Duration("duration", elapsed),
			slog.Any("error", err))
		j.finish(ctx, logger, job.HistoryID, entity.JobStatusFailed, err.Error())
		metrics.RecordTrainingRun(entity.JobStatusFailed, elapsed)
		return Result{
			HistoryID:   job.HistoryID,
			Status:      entity.JobStatusFailed,
			Message:     err.Error(),
			TriggeredBy: triggeredBy,
			Duration:    elapsed,
			Err:         err,
		}
	}

	message := "training completed: " + evalMetrics.Summary()
	j.finish(ctx, logger, job.HistoryID, entity.JobStatusSuccess, message)
	metrics.RecordTrainingRun(entity.JobStatusSuccess, elapsed)
	logger.Info("training job finished",
		slog.Duration("duration", elapsed),
		slog.String("metrics", evalMetrics.Summary()))

	return Result{
		HistoryID:   job.HistoryID,
		Status:      entity.JobStatusSuccess,
		Message:     message,
		TriggeredBy: triggeredBy,
		Duration:    elapsed,
		Metrics:     &evalMetrics,
	}
}

// runStages executes the five pipeline stages in strict sequence and
// returns the evaluation metrics of the trained model.
func (j *Job) runStages(ctx context.Context) (Metrics, error) {
	set, err := stage(ctx, "training.load", func(ctx context.Context) (entity.InteractionSet, error) {
		return j.Loader.Load(ctx, time.Time{}, time.Time{})
	})
	if err != nil {
		return Metrics{}, err
	}

	matrix, users, products := j.Preprocessor.Process(set)
	metrics.RecordTrainingDataset(set.Total(), users.Len(), products.Len())

	model, err := stage(ctx, "training.train", func(ctx context.Context) (*Model, error) {
		return j.Trainer.Train(matrix, j.Rank)
	})
	if err != nil {
		return Metrics{}, fmt.Errorf("train model: %w", err)
	}

	// Evaluation is best-effort and cannot fail the run.
	evalMetrics := j.Evaluator.Evaluate(model)
	metrics.RecordTrainingCoverage(evalMetrics.Coverage)

	_, err = stage(ctx, "training.write", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, j.Writer.Write(ctx, model, users, products)
	})
	if err != nil {
		return Metrics{}, err
	}

	return evalMetrics, nil
}

// stage runs fn inside a span named after the pipeline stage.
func stage[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracing.GetTracer().Start(ctx, name)
	defer span.End()
	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

// finish applies the single terminal update, logging rather than
// propagating a failure to close the record.
func (j *Job) finish(ctx context.Context, logger *slog.Logger, historyID int64, status, message string) {
	// The run may have failed because ctx was cancelled; close the
	// record on a detached context so the audit trail survives.
	ctx = context.WithoutCancel(ctx)
	if err := j.History.Finish(ctx, historyID, status, message); err != nil {
		logger.Error("failed to close training job record",
			slog.String("status", status),
			slog.Any("error", err))
	}
}

// failWithoutRecord builds a failure Result for errors that occur
// before an audit record exists.
func (j *Job) failWithoutRecord(logger *slog.Logger, start time.Time, triggeredBy string, err error) Result {
	nowFn := j.now
	if nowFn == nil {
		nowFn = time.Now
	}
	elapsed := nowFn().Sub(start)
	logger.Error("training job failed before record creation", slog.Any("error", err))
	metrics.RecordTrainingRun(entity.JobStatusFailed, elapsed)
	return Result{
		Status:      entity.JobStatusFailed,
		Message:     err.Error(),
		TriggeredBy: triggeredBy,
		Duration:    elapsed,
		Err:         err,
	}
}
