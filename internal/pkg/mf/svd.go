package mf

import (
	"math"
	"math/rand"
)

// svdEps is the singular value below which a component is treated as
// numerically zero and the decomposition stops early.
const svdEps = 1e-10

// SVDOptions controls the truncated decomposition.
type SVDOptions struct {
	// Rank is the number of components to extract. Callers clamp it to
	// the matrix dimensions before invoking the solver.
	Rank int
	// Iterations is the number of power iterations per component.
	Iterations int
	// Seed makes the random starting vectors reproducible.
	Seed int64
}

// SVDResult holds the truncated factorization of an interaction matrix.
// UserFactors is Rows x k, ItemFactors is Cols x k, and the dot product
// of a user row with an item row reconstructs the interaction score:
// UserFactors = A*V, ItemFactors = V where A ≈ U Σ Vᵀ.
type SVDResult struct {
	UserFactors    [][]float64
	ItemFactors    [][]float64
	SingularValues []float64
}

// TruncatedSVD computes the top-k right singular vectors of a by
// deflation power iteration on AᵀA. Each component runs a fixed number
// of iterations, re-orthogonalized against the components already
// found. The decomposition stops early when the residual spectrum is
// numerically exhausted, so the returned rank may be lower than
// requested.
func TruncatedSVD(a *Sparse, opts SVDOptions) SVDResult {
	m, n := a.Rows(), a.Cols()
	if m == 0 || n == 0 || opts.Rank <= 0 {
		return SVDResult{
			UserFactors:    make([][]float64, m),
			ItemFactors:    make([][]float64, n),
			SingularValues: nil,
		}
	}

	iters := opts.Iterations
	if iters <= 0 {
		iters = 20
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	// Right singular vectors found so far, column-wise (each length n).
	var basis [][]float64
	var sigmas []float64

	for c := 0; c < opts.Rank; c++ {
		v := randomUnit(rng, n)
		orthogonalize(v, basis)
		if normalize(v) < svdEps {
			break
		}

		converged := true
		for it := 0; it < iters; it++ {
			w := a.MulTVec(a.MulVec(v))
			orthogonalize(w, basis)
			if normalize(w) < svdEps {
				converged = false
				break
			}
			v = w
		}
		if !converged {
			break
		}

		sigma := norm(a.MulVec(v))
		if sigma < svdEps {
			break
		}
		basis = append(basis, v)
		sigmas = append(sigmas, sigma)
	}

	k := len(basis)
	itemFactors := make([][]float64, n)
	for j := 0; j < n; j++ {
		row := make([]float64, k)
		for c := 0; c < k; c++ {
			row[c] = basis[c][j]
		}
		itemFactors[j] = row
	}

	userFactors := make([][]float64, m)
	for i := range userFactors {
		userFactors[i] = make([]float64, k)
	}
	for c := 0; c < k; c++ {
		av := a.MulVec(basis[c])
		for i := 0; i < m; i++ {
			userFactors[i][c] = av[i]
		}
	}

	return SVDResult{
		UserFactors:    userFactors,
		ItemFactors:    itemFactors,
		SingularValues: sigmas,
	}
}

func randomUnit(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	normalize(v)
	return v
}

// orthogonalize subtracts from v its projection onto every basis vector.
func orthogonalize(v []float64, basis [][]float64) {
	for _, b := range basis {
		p := Dot(v, b)
		for i := range v {
			v[i] -= p * b[i]
		}
	}
}

func norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// normalize scales v to unit length in place and returns the original norm.
func normalize(v []float64) float64 {
	nv := norm(v)
	if nv < svdEps {
		return nv
	}
	for i := range v {
		v[i] /= nv
	}
	return nv
}
