package mf

import (
	"math"
	"sort"
)

// Dot returns the dot product of two equally sized vectors.
// Mismatched lengths are truncated to the shorter vector.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// A zero-norm vector yields 0.
func Cosine(a, b []float64) float64 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	s := Dot(a, b) / (na * nb)
	// Clamp rounding spill so stored scores stay inside [-1, 1].
	return math.Max(-1, math.Min(1, s))
}

// TopN returns the indices of the n highest scores in descending score
// order. Ties keep the original index order (stable). Indices for which
// skip returns true are excluded; skip may be nil.
func TopN(scores []float64, n int, skip func(i int) bool) []int {
	idx := make([]int, 0, len(scores))
	for i := range scores {
		if skip != nil && skip(i) {
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if n >= 0 && len(idx) > n {
		idx = idx[:n]
	}
	return idx
}
