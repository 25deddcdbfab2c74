// Package mf provides the numeric primitives for matrix factorization:
// a sparse interaction matrix, a truncated SVD solver, and the
// cosine/top-N helpers used to derive similarity and recommendation
// tables from the factor matrices.
package mf

// Sparse is a sparse numeric matrix in coordinate form. Rows are dense
// user indices, columns are dense item indices. It is built once per
// training run and discarded afterwards.
type Sparse struct {
	rows, cols int
	entries    []entry
}

type entry struct {
	row, col int
	val      float64
}

// NewSparse creates an empty rows x cols matrix. Either dimension may
// be zero for the degenerate no-interaction case.
func NewSparse(rows, cols int) *Sparse {
	return &Sparse{rows: rows, cols: cols}
}

// Rows returns the number of rows (users).
func (m *Sparse) Rows() int { return m.rows }

// Cols returns the number of columns (items).
func (m *Sparse) Cols() int { return m.cols }

// NNZ returns the number of stored entries.
func (m *Sparse) NNZ() int { return len(m.entries) }

// Set stores a value at (row, col). Indices outside the matrix bounds
// are ignored; callers build indices and dimensions from the same ID
// maps so this only guards against programming errors.
func (m *Sparse) Set(row, col int, val float64) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return
	}
	m.entries = append(m.entries, entry{row: row, col: col, val: val})
}

// At returns the stored value at (row, col), or 0 if absent.
// Linear scan: only used by tests and small-matrix diagnostics.
func (m *Sparse) At(row, col int) float64 {
	for _, e := range m.entries {
		if e.row == row && e.col == col {
			return e.val
		}
	}
	return 0
}

// MulVec computes A*v for a column vector v of length Cols.
func (m *Sparse) MulVec(v []float64) []float64 {
	out := make([]float64, m.rows)
	for _, e := range m.entries {
		out[e.row] += e.val * v[e.col]
	}
	return out
}

// MulTVec computes Aᵀ*u for a column vector u of length Rows.
func (m *Sparse) MulTVec(u []float64) []float64 {
	out := make([]float64, m.cols)
	for _, e := range m.entries {
		out[e.col] += e.val * u[e.row]
	}
	return out
}
