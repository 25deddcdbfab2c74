// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Training pipeline metrics (runs, dataset shape, derived rows)
//   - Recommendation serving metrics (strategy counts, failures)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "shop-reco/internal/observability/metrics"
//
//	func runPipeline() {
//	    start := time.Now()
//	    // ... train ...
//	    metrics.RecordTrainingRun("SUCCESS", time.Since(start))
//	}
package metrics
