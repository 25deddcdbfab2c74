package training

import (
	"log/slog"

	"shop-reco/internal/pkg/mf"
)

// Model holds the low-rank embeddings of one training run.
// UserFactors is numUsers x k and ItemFactors is numProducts x k; the
// dot product of a user row with an item row approximates the fused
// interaction score. A Model is immutable after creation and is never
// persisted as a whole, only its derived projections are.
type Model struct {
	UserFactors [][]float64
	ItemFactors [][]float64
}

// Empty reports whether the model carries no usable factors.
func (m *Model) Empty() bool {
	return len(m.UserFactors) == 0 || len(m.ItemFactors) == 0 ||
		len(m.ItemFactors[0]) == 0
}

// Rank returns the effective number of latent dimensions.
func (m *Model) Rank() int {
	if len(m.ItemFactors) == 0 {
		return 0
	}
	return len(m.ItemFactors[0])
}

// Trainer maps a sparse interaction matrix to dense low-dimensional
// user and item vectors. Any solver satisfying that contract is
// substitutable; tests use a deterministic stub.
type Trainer interface {
	Train(matrix *mf.Sparse, rank int) (*Model, error)
}

// SVDTrainer is the production Trainer: a deterministic truncated
// singular value decomposition by deflation power iteration.
type SVDTrainer struct {
	// Iterations is the power iteration count per component.
	// Zero means the solver default.
	Iterations int
	// Seed fixes the random starting vectors for reproducibility.
	Seed int64
}

// Train factorizes the matrix at rank clamped to
// min(rank, min(numUsers, numProducts)-1), never below zero.
// A matrix with a zero dimension or a clamped rank of zero yields an
// empty model without invoking the solver; degenerate input is not an
// error.
func (t *SVDTrainer) Train(matrix *mf.Sparse, rank int) (*Model, error) {
	m, n := matrix.Rows(), matrix.Cols()
	k := ClampRank(rank, m, n)
	if k == 0 {
		slog.Warn("degenerate interaction matrix, producing empty model",
			slog.Int("users", m),
			slog.Int("products", n),
			slog.Int("requested_rank", rank))
		return &Model{
			UserFactors: make([][]float64, m),
			ItemFactors: make([][]float64, n),
		}, nil
	}

	res := mf.TruncatedSVD(matrix, mf.SVDOptions{
		Rank:       k,
		Iterations: t.Iterations,
		Seed:       t.Seed,
	})

	slog.Info("factorization complete",
		slog.Int("requested_rank", rank),
		slog.Int("clamped_rank", k),
		slog.Int("effective_rank", len(res.SingularValues)))

	return &Model{
		UserFactors: res.UserFactors,
		ItemFactors: res.ItemFactors,
	}, nil
}

// ClampRank bounds the configured rank by the matrix dimensions:
// min(rank, min(m, n)-1), never below zero.
func ClampRank(rank, m, n int) int {
	limit := m
	if n < limit {
		limit = n
	}
	limit--
	if rank > limit {
		rank = limit
	}
	if rank < 0 {
		rank = 0
	}
	return rank
}
