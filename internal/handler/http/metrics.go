package http

import (
	"net/http"
	"strconv"
	"time"

	"shop-reco/internal/handler/http/pathutil"
	obsmetrics "shop-reco/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// responseWriter wraps http.ResponseWriter to record status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// MetricsMiddleware records HTTP request metrics including duration, size, and
// status codes. Paths are normalized before use as labels so ID-bearing routes
// do not blow up label cardinality (e.g. /recommendations/users/123 becomes
// /recommendations/users/:id).
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obsmetrics.ActiveConnections.Inc()
		defer obsmetrics.ActiveConnections.Dec()

		normalizedPath := pathutil.NormalizePath(r.URL.Path)

		requestSize := 0
		if r.ContentLength > 0 {
			requestSize = int(r.ContentLength)
		}

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		start := time.Now()
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		status := strconv.Itoa(rw.statusCode)
		obsmetrics.RecordHTTPRequest(r.Method, normalizedPath, status, duration, requestSize, rw.size)
	})
}

// MetricsHandler returns an HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
