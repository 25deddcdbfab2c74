package http

import (
	"net/http"
)

// InputValidation returns middleware that validates and limits request inputs.
// It enforces limits on:
// - X-Admin-ID header size (256 bytes)
// - URI path length (2KB)
// - Request body size (1MB)
//
// This prevents DoS attacks and ensures reasonable request sizes.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Admin identifier header limit. Gateway-issued IDs are short
			// strings, so anything larger is malformed or hostile.
			adminHeader := r.Header.Get("X-Admin-ID")
			if len(adminHeader) > 256 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"admin id header too large"}`))
				return
			}

			// Path length limit (2KB)
			// Prevents path traversal attacks and keeps URLs reasonable
			if len(r.URL.Path) > 2048 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestURITooLong)
				_, _ = w.Write([]byte(`{"error":"URI too long"}`))
				return
			}

			// Request body size limit (1MB). The API accepts no large
			// payloads, so this caps memory per request.
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

			next.ServeHTTP(w, r)
		})
	}
}
