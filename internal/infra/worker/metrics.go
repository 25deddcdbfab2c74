package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"shop-reco/internal/pkg/config"
)

// WorkerMetrics exposes Prometheus metrics for the training daemon.
// It embeds ConfigMetrics for configuration fallback tracking and adds
// cron run counters. Per-stage training metrics (interactions loaded,
// coverage, rows written) live in internal/observability/metrics and
// are recorded by the pipeline itself; these metrics cover only the
// scheduling wrapper around it.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronJobRunsTotal counts scheduled runs by outcome
	// (success/failure).
	CronJobRunsTotal *prometheus.CounterVec

	// CronJobDurationSeconds observes wall-clock run duration,
	// bucketed for runs from seconds to half an hour.
	CronJobDurationSeconds prometheus.Histogram

	// CronJobLastSuccessTimestamp is the Unix time of the last
	// successful run, for staleness alerting.
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates and registers the daemon metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of scheduled training runs by status (success/failure)",
		}, []string{"status"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of scheduled training runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful training run",
		}),
	}
}

// MustRegister is a no-op kept for call-site symmetry: registration
// already happened via promauto in NewWorkerMetrics.
func (m *WorkerMetrics) MustRegister() {}

// RecordJobRun increments the run counter. Status is "success" or
// "failure".
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one run's duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordLastSuccess stamps the last successful run at now.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
