// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Training metrics track the offline pipeline
var (
	// TrainingRunsTotal counts pipeline runs by terminal status
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of training pipeline runs",
		},
		[]string{"status"},
	)

	// TrainingDuration measures end-to-end pipeline run time
	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "End-to-end training pipeline duration",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"status"},
	)

	// TrainingInteractionsLoaded tracks raw interaction rows of the last run
	TrainingInteractionsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_interactions_loaded",
			Help: "Raw interaction rows loaded by the last training run",
		},
	)

	// TrainingMatrixUsers tracks the user dimension of the last run's matrix
	TrainingMatrixUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_matrix_users",
			Help: "Distinct users in the last training run's interaction matrix",
		},
	)

	// TrainingMatrixProducts tracks the item dimension of the last run's matrix
	TrainingMatrixProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_matrix_products",
			Help: "Distinct products in the last training run's interaction matrix",
		},
	)

	// TrainingCoverage tracks the last run's coverage metric
	TrainingCoverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_coverage_ratio",
			Help: "Normalized capacity metric of the last trained model",
		},
	)

	// DerivedRowsWritten tracks rows written per derived table on the last run
	DerivedRowsWritten = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "training_derived_rows_written",
			Help: "Rows written per derived table by the last training run",
		},
		[]string{"table"},
	)
)

// Serving metrics track the online recommendation read path
var (
	// RecommendationsServedTotal counts served recommendation lists by strategy
	RecommendationsServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total recommendation lists served, by strategy",
		},
		[]string{"type"},
	)

	// ServingErrorsTotal counts serving failures by endpoint and reason
	ServingErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_serving_errors_total",
			Help: "Total recommendation serving failures",
		},
		[]string{"endpoint", "reason"},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
