package metrics

import (
	"strings"
	"time"
)

// RecordTrainingRun records a completed pipeline run with its terminal
// status ("SUCCESS" or "FAILED") and wall-clock duration.
func RecordTrainingRun(status string, duration time.Duration) {
	status = strings.ToLower(status)
	TrainingRunsTotal.WithLabelValues(status).Inc()
	TrainingDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordTrainingDataset records the shape of the last run's input:
// raw interaction rows loaded and the dimensions of the fused matrix.
func RecordTrainingDataset(interactions, users, products int) {
	TrainingInteractionsLoaded.Set(float64(interactions))
	TrainingMatrixUsers.Set(float64(users))
	TrainingMatrixProducts.Set(float64(products))
}

// RecordTrainingCoverage records the evaluator's coverage metric for
// the last trained model.
func RecordTrainingCoverage(coverage float64) {
	TrainingCoverage.Set(coverage)
}

// RecordDerivedRows records how many rows the last run wrote into each
// derived table.
func RecordDerivedRows(table string, count int) {
	DerivedRowsWritten.WithLabelValues(table).Set(float64(count))
}

// RecordRecommendationServed records one served recommendation list.
// recType is the strategy that produced it: "similar_products",
// "personalized", "based_on_history", or "latest_products".
func RecordRecommendationServed(recType string) {
	RecommendationsServedTotal.WithLabelValues(recType).Inc()
}

// RecordServingError records a serving failure.
// Reason should be a low-cardinality class like "not_found" or "db_error".
func RecordServingError(endpoint, reason string) {
	ServingErrorsTotal.WithLabelValues(endpoint, reason).Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "list_similarity", "replace_recommendations").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
