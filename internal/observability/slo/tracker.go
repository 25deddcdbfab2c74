package slo

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Tracker accumulates request outcomes in-process and periodically
// publishes the SLO gauges. It keeps a bounded sample of latencies per
// window; the window resets on every flush.
type Tracker struct {
	mu        sync.Mutex
	total     uint64
	errors    uint64
	latencies []float64
	maxSample int
}

// NewTracker creates a tracker keeping at most maxSample latency
// observations per window.
func NewTracker(maxSample int) *Tracker {
	if maxSample <= 0 {
		maxSample = 4096
	}
	return &Tracker{
		latencies: make([]float64, 0, maxSample),
		maxSample: maxSample,
	}
}

// Observe records one completed request.
func (t *Tracker) Observe(status int, seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if status >= 500 {
		t.errors++
	}
	if len(t.latencies) < t.maxSample {
		t.latencies = append(t.latencies, seconds)
	}
}

// Middleware wraps next and feeds every request into the tracker.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		t.Observe(sw.status, time.Since(start).Seconds())
	})
}

// Flush publishes the current window to the SLO gauges and starts a
// new window. An empty window leaves the gauges untouched.
func (t *Tracker) Flush() {
	t.mu.Lock()
	total := t.total
	errors := t.errors
	latencies := t.latencies
	t.total = 0
	t.errors = 0
	t.latencies = make([]float64, 0, t.maxSample)
	t.mu.Unlock()

	if total == 0 {
		return
	}

	UpdateAvailability(float64(total-errors) / float64(total))
	UpdateErrorRate(float64(errors) / float64(total))

	sort.Float64s(latencies)
	UpdateLatencyP95(percentile(latencies, 0.95))
	UpdateLatencyP99(percentile(latencies, 0.99))
}

// Run flushes the tracker at the given interval until ctx is
// cancelled, flushing one final time on exit.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("slo tracker started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			t.Flush()
			return
		case <-ticker.C:
			t.Flush()
		}
	}
}

// percentile returns the p-th percentile of a sorted sample using
// nearest-rank selection.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
