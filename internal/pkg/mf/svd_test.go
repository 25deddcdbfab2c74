package mf_test

import (
	"math"
	"testing"

	"shop-reco/internal/pkg/mf"
)

func rank1Matrix(t *testing.T) *mf.Sparse {
	t.Helper()
	// A[i][j] = u[i]*v[j], exact rank 1.
	u := []float64{1, 2, 3}
	v := []float64{2, 1}
	m := mf.NewSparse(len(u), len(v))
	for i := range u {
		for j := range v {
			m.Set(i, j, u[i]*v[j])
		}
	}
	return m
}

func TestTruncatedSVD_Rank1Reconstruction(t *testing.T) {
	a := rank1Matrix(t)
	res := mf.TruncatedSVD(a, mf.SVDOptions{Rank: 1, Iterations: 50, Seed: 42})

	if len(res.SingularValues) != 1 {
		t.Fatalf("singular values: got %d, want 1", len(res.SingularValues))
	}
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			got := mf.Dot(res.UserFactors[i], res.ItemFactors[j])
			want := a.At(i, j)
			if math.Abs(got-want) > 1e-8 {
				t.Fatalf("reconstruction at (%d,%d): got %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestTruncatedSVD_StopsAtNumericalRank(t *testing.T) {
	a := rank1Matrix(t)
	res := mf.TruncatedSVD(a, mf.SVDOptions{Rank: 3, Iterations: 50, Seed: 42})

	// The matrix has rank 1; the solver must not fabricate components.
	if len(res.SingularValues) != 1 {
		t.Fatalf("singular values: got %d, want 1", len(res.SingularValues))
	}
	for _, row := range res.UserFactors {
		if len(row) != 1 {
			t.Fatalf("user factor width: got %d, want 1", len(row))
		}
	}
}

func TestTruncatedSVD_EmptyMatrix(t *testing.T) {
	res := mf.TruncatedSVD(mf.NewSparse(0, 0), mf.SVDOptions{Rank: 10, Iterations: 5, Seed: 1})
	if len(res.UserFactors) != 0 || len(res.ItemFactors) != 0 || len(res.SingularValues) != 0 {
		t.Fatalf("empty matrix produced factors: %+v", res)
	}
}

func TestTruncatedSVD_Deterministic(t *testing.T) {
	a := rank1Matrix(t)
	first := mf.TruncatedSVD(a, mf.SVDOptions{Rank: 1, Iterations: 30, Seed: 7})
	second := mf.TruncatedSVD(a, mf.SVDOptions{Rank: 1, Iterations: 30, Seed: 7})

	for j := range first.ItemFactors {
		for c := range first.ItemFactors[j] {
			if first.ItemFactors[j][c] != second.ItemFactors[j][c] {
				t.Fatalf("item factors differ between identical runs at (%d,%d)", j, c)
			}
		}
	}
}

func TestTruncatedSVD_SingularValueOrder(t *testing.T) {
	// Diagonal matrix with distinct singular values 5, 3, 1.
	a := mf.NewSparse(3, 3)
	a.Set(0, 0, 5)
	a.Set(1, 1, 3)
	a.Set(2, 2, 1)

	res := mf.TruncatedSVD(a, mf.SVDOptions{Rank: 2, Iterations: 100, Seed: 11})
	if len(res.SingularValues) != 2 {
		t.Fatalf("singular values: got %d, want 2", len(res.SingularValues))
	}
	if math.Abs(res.SingularValues[0]-5) > 1e-6 || math.Abs(res.SingularValues[1]-3) > 1e-6 {
		t.Fatalf("singular values = %v, want [5 3]", res.SingularValues)
	}
}
