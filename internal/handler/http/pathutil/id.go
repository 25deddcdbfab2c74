// Package pathutil extracts and normalizes IDs in URL paths for the
// recommendation API routes.
package pathutil

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ExtractID extracts and parses an integer ID from a URL path.
// It removes the specified prefix and parses the remainder as int64.
//
// Example:
//
//	id, err := ExtractID("/recommendations/users/42", "/recommendations/users/")
//	// Returns: 42, nil
//
// Returns ErrInvalidID when the remainder is not a number or is <= 0.
func ExtractID(path, prefix string) (int64, error) {
	idStr := strings.TrimPrefix(path, prefix)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
