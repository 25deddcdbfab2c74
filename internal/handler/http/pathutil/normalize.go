package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern pairs a route regex with its normalized metrics label.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns lists the dynamic routes of the recommendation API,
// most specific first. Pre-compiled at init so normalization stays
// cheap on the hot path.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/recommendations/products/\d+/similar$`), Template: "/recommendations/products/:id/similar"},
	{Pattern: regexp.MustCompile(`^/recommendations/products/\d+$`), Template: "/recommendations/products/:id"},
	{Pattern: regexp.MustCompile(`^/recommendations/users/\d+$`), Template: "/recommendations/users/:id"},
	{Pattern: regexp.MustCompile(`^/admin/recommendations/training-history/\d+$`), Template: "/admin/recommendations/training-history/:id"},
}

// NormalizePath maps ID-bearing URL paths to template form so metric
// path labels stay bounded. Static paths pass through unchanged.
//
// Examples:
//
//	NormalizePath("/recommendations/users/42")          // "/recommendations/users/:id"
//	NormalizePath("/recommendations/products/7/similar") // "/recommendations/products/:id/similar"
//	NormalizePath("/health")                             // "/health" (unchanged)
//	NormalizePath("/recommendations/users/42?limit=5")   // "/recommendations/users/:id"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}

	// Unmatched paths are static (/health, /metrics, admin list) and
	// safe to record as-is.
	return path
}

// GetExpectedCardinality estimates the number of unique path labels
// after normalization, for capacity planning.
func GetExpectedCardinality() int {
	templateCount := len(pathPatterns)

	// /health, /ready, /live, /metrics, /admin/recommendations/train,
	// /admin/recommendations/training-history
	staticCount := 6

	return templateCount + staticCount
}
