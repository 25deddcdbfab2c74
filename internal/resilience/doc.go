// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes implementations of circuit breakers and retry logic to keep
// recommendation serving available when its dependencies misbehave.
//
// The package supports:
//   - Circuit breakers for the database and the recommendation cache
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	dcb := circuitbreaker.NewDBCircuitBreaker(database)
//	rows, err := dcb.QueryContext(ctx, query, args...)
//
//	retryConfig := retry.DBConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
