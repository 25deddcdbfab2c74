package entity

import (
	"fmt"
	"time"
)

// Training job lifecycle states. A job record is created in RUNNING and
// receives exactly one terminal update to SUCCESS or FAILED.
const (
	JobStatusRunning = "RUNNING"
	JobStatusSuccess = "SUCCESS"
	JobStatusFailed  = "FAILED"
)

// TriggeredBySchedule marks jobs started by the periodic scheduler.
// Manual runs use TriggeredByAdmin to encode the triggering admin ID.
const TriggeredBySchedule = "SCHEDULED"

// TriggeredByAdmin returns the triggered-by tag for a manual run.
func TriggeredByAdmin(adminID string) string {
	return fmt.Sprintf("MANUAL_%s", adminID)
}

// ProductSimilarity is one directed similarity pair derived from the
// item factor matrix. The whole table is replaced on each successful
// training run.
type ProductSimilarity struct {
	ProductIDA int64
	ProductIDB int64
	Score      float64
	UpdatedAt  time.Time
}

// UserRecommendation is one ranked per-user recommendation row.
// Rank is 1-based and unique per user, ascending rank = better.
type UserRecommendation struct {
	UserID    int64
	ProductID int64
	Score     float64
	Rank      int
	UpdatedAt time.Time
}

// TrainingJob is the append-only audit record of one pipeline run.
type TrainingJob struct {
	HistoryID   int64
	StartTime   time.Time
	EndTime     *time.Time
	Status      string
	TriggeredBy string
	Message     string
}

// Terminal reports whether the job has reached SUCCESS or FAILED.
func (j *TrainingJob) Terminal() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailed
}

// DurationSeconds returns the elapsed run time in seconds, or nil while
// the job is still running.
func (j *TrainingJob) DurationSeconds() *float64 {
	if j.EndTime == nil {
		return nil
	}
	d := j.EndTime.Sub(j.StartTime).Seconds()
	return &d
}

// Validate checks the invariants of a job record before persistence.
func (j *TrainingJob) Validate() error {
	switch j.Status {
	case JobStatusRunning, JobStatusSuccess, JobStatusFailed:
	default:
		return &ValidationError{Field: "Status", Message: fmt.Sprintf("unknown status %q", j.Status)}
	}
	if j.TriggeredBy == "" {
		return &ValidationError{Field: "TriggeredBy", Message: "must not be empty"}
	}
	if j.Status == JobStatusRunning && j.EndTime != nil {
		return &ValidationError{Field: "EndTime", Message: "must be unset while running"}
	}
	return nil
}
