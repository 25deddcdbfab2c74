// Package training provides the admin-facing HTTP handlers for
// triggering training runs and inspecting the training job history.
package training

import (
	"time"

	"shop-reco/internal/domain/entity"
	trainUC "shop-reco/internal/usecase/training"
)

// TriggerDTO is the response body of a manual training run. The run is
// synchronous: the body describes the finished job, including failed
// runs, which are reported here rather than as transport errors.
type TriggerDTO struct {
	HistoryID       int64    `json:"history_id"`
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	TriggeredBy     string   `json:"triggered_by"`
	DurationSeconds float64  `json:"duration_seconds"`
	Coverage        *float64 `json:"coverage,omitempty"`
}

func toTriggerDTO(res trainUC.Result) TriggerDTO {
	out := TriggerDTO{
		HistoryID:       res.HistoryID,
		Status:          res.Status,
		Message:         res.Message,
		TriggeredBy:     res.TriggeredBy,
		DurationSeconds: res.Duration.Seconds(),
	}
	if res.Metrics != nil {
		c := res.Metrics.Coverage
		out.Coverage = &c
	}
	return out
}

// JobDTO is the JSON projection of one training history record.
type JobDTO struct {
	HistoryID       int64      `json:"history_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Status          string     `json:"status"`
	TriggeredBy     string     `json:"triggered_by"`
	Message         string     `json:"message,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
}

func toJobDTO(job *entity.TrainingJob) JobDTO {
	return JobDTO{
		HistoryID:       job.HistoryID,
		StartTime:       job.StartTime,
		EndTime:         job.EndTime,
		Status:          job.Status,
		TriggeredBy:     job.TriggeredBy,
		Message:         job.Message,
		DurationSeconds: job.DurationSeconds(),
	}
}
