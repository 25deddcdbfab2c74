// Package worker holds the runtime configuration, health endpoints,
// and metrics of the training daemon.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"shop-reco/internal/pkg/config"
)

// WorkerConfig controls the training daemon: when scheduled runs fire,
// how long a single run may take, and where the health server listens.
//
// Loading is fail-open: an invalid environment value falls back to the
// default with a warning and a metrics increment, so a typo in one
// variable never keeps the daemon down.
type WorkerConfig struct {
	// CronSchedule is the cron expression for scheduled training runs.
	// Default: "30 3 * * *" (daily at 03:30, off catalog peak hours).
	CronSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	// Default: "Asia/Tokyo"
	Timezone string

	// TrainingTimeout bounds a single pipeline run. A run that exceeds
	// it is cancelled and recorded as FAILED.
	// Default: 30 minutes
	TrainingTimeout time.Duration

	// HealthPort is the port of the liveness/readiness HTTP server.
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns production-ready defaults: a daily off-peak
// run with a 30-minute cap.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:    "30 3 * * *",
		Timezone:        "Asia/Tokyo",
		TrainingTimeout: 30 * time.Minute,
		HealthPort:      9091,
	}
}

// Validate checks every field and returns all violations at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.TrainingTimeout); err != nil {
		errs = append(errs, fmt.Errorf("training timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the daemon configuration from environment
// variables, falling back to defaults on invalid values.
//
// Environment variables:
//   - TRAINING_CRON_SCHEDULE: cron expression (default "30 3 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default "Asia/Tokyo")
//   - TRAINING_TIMEOUT: duration string 1m-4h (default "30m")
//   - WORKER_HEALTH_PORT: 1024-65535 (default 9091)
//
// The returned config is always valid; the error is always nil and
// exists so callers read naturally.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	warn := func(field string, warnings []string) {
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, w := range warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
	}

	result := config.LoadEnvWithFallback("TRAINING_CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		warn("cron_schedule", result.Warnings)
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		warn("timezone", result.Warnings)
	}

	result = config.LoadEnvDuration("TRAINING_TIMEOUT", cfg.TrainingTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.TrainingTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		warn("training_timeout", result.Warnings)
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		warn("health_port", result.Warnings)
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
