// Package middleware provides HTTP middleware for the recommendation API,
// including per-IP rate limiting for the public similarity endpoint.
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"shop-reco/internal/handler/http/respond"
)

// IPRateLimiterConfig holds configuration for the IP-based rate limiter.
type IPRateLimiterConfig struct {
	// RequestsPerSecond is the sustained per-IP request rate.
	// Default: 100 requests per minute.
	RequestsPerSecond float64

	// Burst is the number of requests a single IP may make at once.
	// Default: 20
	Burst int

	// Enabled controls whether rate limiting is active.
	Enabled bool
}

// DefaultIPRateLimiterConfig returns the default configuration for
// IP-based rate limiting: 100 req/min sustained with a burst of 20.
func DefaultIPRateLimiterConfig() IPRateLimiterConfig {
	return IPRateLimiterConfig{
		RequestsPerSecond: 100.0 / 60.0,
		Burst:             20,
		Enabled:           true,
	}
}

// IPRateLimiter enforces a token-bucket limit per client IP.
//
// One rate.Limiter is kept per IP. Entries not touched within the
// pruneAfter window are discarded on the next sweep, so the map does
// not grow without bound under churny traffic.
type IPRateLimiter struct {
	config IPRateLimiterConfig
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*ipEntry

	pruneAfter time.Duration
	lastPrune  time.Time
	now        func() time.Time
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a per-IP rate limiter middleware.
// Non-positive config fields fall back to the defaults.
func NewIPRateLimiter(config IPRateLimiterConfig, logger *slog.Logger) *IPRateLimiter {
	def := DefaultIPRateLimiterConfig()
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = def.RequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = def.Burst
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &IPRateLimiter{
		config:     config,
		logger:     logger,
		limiters:   make(map[string]*ipEntry),
		pruneAfter: 10 * time.Minute,
		now:        time.Now,
	}
}

// Middleware wraps next with per-IP rate limiting. Requests over the
// limit receive 429 with a Retry-After hint; requests whose client IP
// cannot be determined are allowed through so a proxy misconfiguration
// never takes the endpoint down.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip, err := clientIP(r)
		if err != nil {
			l.logger.Warn("rate limit: cannot determine client ip",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		if !l.allow(ip) {
			l.logger.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path))
			retryAfter := int(1.0/l.config.RequestsPerSecond) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.config.Burst))
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > l.pruneAfter {
		for key, e := range l.limiters {
			if now.Sub(e.lastSeen) > l.pruneAfter {
				delete(l.limiters, key)
			}
		}
		l.lastPrune = now
	}

	e, ok := l.limiters[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)}
		l.limiters[ip] = e
	}
	e.lastSeen = now

	return e.limiter.Allow()
}

// clientIP extracts the client IP from RemoteAddr. Header-based
// extraction is deliberately not supported: the gateway in front of
// this service terminates client connections, so RemoteAddr is the
// peer we actually rate-limit.
func clientIP(r *http.Request) (string, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, as seen in tests.
		if ip := net.ParseIP(r.RemoteAddr); ip != nil {
			return ip.String(), nil
		}
		return "", err
	}
	return host, nil
}
