package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/repository"
)

type TrainingHistoryRepo struct {
	db DB
}

func NewTrainingHistoryRepo(db DB) repository.TrainingHistoryRepository {
	return &TrainingHistoryRepo{db: db}
}

func (repo *TrainingHistoryRepo) Create(ctx context.Context, triggeredBy string) (*entity.TrainingJob, error) {
	job := &entity.TrainingJob{
		StartTime:   time.Now().UTC(),
		Status:      entity.JobStatusRunning,
		TriggeredBy: triggeredBy,
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	const query = `
INSERT INTO training_history (start_time, status, triggered_by)
VALUES ($1, $2, $3)
RETURNING history_id`
	err := repo.db.QueryRowContext(ctx, query, job.StartTime, job.Status, job.TriggeredBy).
		Scan(&job.HistoryID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return job, nil
}

func (repo *TrainingHistoryRepo) Finish(ctx context.Context, historyID int64, status, message string) error {
	if status != entity.JobStatusSuccess && status != entity.JobStatusFailed {
		return fmt.Errorf("Finish: status %q is not terminal", status)
	}

	// The status guard keeps the record append-only: a closed job is
	// never updated again.
	const query = `
UPDATE training_history
SET end_time = $1, status = $2, message = $3
WHERE history_id = $4 AND status = $5`
	res, err := repo.db.ExecContext(ctx, query,
		time.Now().UTC(), status, message, historyID, entity.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("Finish: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Finish: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("Finish: job %d is not running", historyID)
	}
	return nil
}

func (repo *TrainingHistoryRepo) List(ctx context.Context, limit int) ([]*entity.TrainingJob, error) {
	const query = `
SELECT history_id, start_time, end_time, status, triggered_by, COALESCE(message, '')
FROM training_history
ORDER BY start_time DESC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*entity.TrainingJob, 0, limit)
	for rows.Next() {
		job, err := scanTrainingJob(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (repo *TrainingHistoryRepo) Get(ctx context.Context, historyID int64) (*entity.TrainingJob, error) {
	const query = `
SELECT history_id, start_time, end_time, status, triggered_by, COALESCE(message, '')
FROM training_history
WHERE history_id = $1
LIMIT 1`
	job, err := scanTrainingJob(repo.db.QueryRowContext(ctx, query, historyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return job, nil
}

func scanTrainingJob(row interface{ Scan(...interface{}) error }) (*entity.TrainingJob, error) {
	var job entity.TrainingJob
	var endTime sql.NullTime
	err := row.Scan(&job.HistoryID, &job.StartTime, &endTime,
		&job.Status, &job.TriggeredBy, &job.Message)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		job.EndTime = &endTime.Time
	}
	return &job, nil
}
