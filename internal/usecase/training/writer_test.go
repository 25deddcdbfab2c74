package training

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/pkg/mf"
	"shop-reco/internal/repository"
)

func writerFixture() (*ResultWriter, *stubSimilarityRepo, *stubRecommendationRepo, *stubItemFactorRepo) {
	simRepo := &stubSimilarityRepo{}
	recRepo := &stubRecommendationRepo{}
	factorRepo := &stubItemFactorRepo{}
	w := NewResultWriter(simRepo, recRepo, factorRepo, 2, 3, 0.01)
	w.now = func() time.Time { return time.Date(2026, 6, 1, 4, 0, 0, 0, time.UTC) }
	return w, simRepo, recRepo, factorRepo
}

// fixtureModel builds a 2-user, 4-item model with hand-picked factors:
// items 0 and 1 are identical, item 2 is orthogonal, item 3 opposite.
func fixtureModel() (*Model, IndexMap, IndexMap) {
	model := &Model{
		UserFactors: [][]float64{
			{1, 0},
			{0, 1},
		},
		ItemFactors: [][]float64{
			{1, 0},
			{1, 0},
			{0, 1},
			{-1, 0},
		},
	}
	users := NewIndexMap()
	users.Add(100)
	users.Add(200)
	products := NewIndexMap()
	for _, id := range []int64{10, 11, 12, 13} {
		products.Add(id)
	}
	return model, users, products
}

func TestResultWriter_SimilarityDerivation(t *testing.T) {
	w, simRepo, _, _ := writerFixture()
	model, users, products := fixtureModel()

	if err := w.Write(context.Background(), model, users, products); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(simRepo.replaced) != 1 {
		t.Fatalf("ReplaceAll called %d times, want 1", len(simRepo.replaced))
	}
	rows := simRepo.replaced[0]

	// Items 2 and 3 have no partner above the threshold, so only the
	// identical pair 10<->11 survives, in both directions.
	if len(rows) != 2 {
		t.Fatalf("got %d similarity rows, want 2: %+v", len(rows), rows)
	}
	for _, row := range rows {
		if row.ProductIDA == row.ProductIDB {
			t.Errorf("self-pair stored: %+v", row)
		}
		if row.Score < 0.01 {
			t.Errorf("row below threshold stored: %+v", row)
		}
		if math.Abs(row.Score-1) > 1e-12 {
			t.Errorf("row score = %v, want 1", row.Score)
		}
	}
	if rows[0].ProductIDA != 10 || rows[0].ProductIDB != 11 {
		t.Errorf("first row = %d->%d, want 10->11", rows[0].ProductIDA, rows[0].ProductIDB)
	}
	if rows[1].ProductIDA != 11 || rows[1].ProductIDB != 10 {
		t.Errorf("second row = %d->%d, want 11->10", rows[1].ProductIDA, rows[1].ProductIDB)
	}
}

func TestResultWriter_RecommendationRanks(t *testing.T) {
	w, _, recRepo, _ := writerFixture()
	model, users, products := fixtureModel()

	if err := w.Write(context.Background(), model, users, products); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rows := recRepo.replaced[0]

	byUser := map[int64][]entity.UserRecommendation{}
	for _, r := range rows {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	// User 100 scores items (1, 1, 0, -1): the tie between items 10
	// and 11 breaks by item index, and ranks run 1..3 contiguously.
	got := byUser[100]
	if len(got) != 3 {
		t.Fatalf("user 100 has %d rows, want 3", len(got))
	}
	wantOrder := []int64{10, 11, 12}
	for i, r := range got {
		if r.Rank != i+1 {
			t.Errorf("rank[%d] = %d, want %d", i, r.Rank, i+1)
		}
		if r.ProductID != wantOrder[i] {
			t.Errorf("product at rank %d = %d, want %d", i+1, r.ProductID, wantOrder[i])
		}
		if i > 0 && got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending at rank %d", i+1)
		}
	}

	// User 200 prefers the orthogonal item 12.
	if byUser[200][0].ProductID != 12 {
		t.Errorf("user 200 top product = %d, want 12", byUser[200][0].ProductID)
	}
}

func TestResultWriter_EmptyModelSkipsDerivations(t *testing.T) {
	w, simRepo, recRepo, factorRepo := writerFixture()

	model := &Model{UserFactors: [][]float64{}, ItemFactors: [][]float64{}}
	if err := w.Write(context.Background(), model, NewIndexMap(), NewIndexMap()); err != nil {
		t.Fatalf("Write with empty model: %v", err)
	}

	if len(simRepo.replaced) != 0 || len(recRepo.replaced) != 0 || len(factorRepo.replaced) != 0 {
		t.Error("derivations ran despite empty model")
	}
}

func TestResultWriter_NilArtifactRepoSkipsFactors(t *testing.T) {
	simRepo := &stubSimilarityRepo{}
	recRepo := &stubRecommendationRepo{}
	w := NewResultWriter(simRepo, recRepo, nil, 2, 3, 0.01)

	model, users, products := fixtureModel()
	if err := w.Write(context.Background(), model, users, products); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(simRepo.replaced) != 1 || len(recRepo.replaced) != 1 {
		t.Error("derived tables not written")
	}
}

func TestResultWriter_PersistsItemFactorArtifact(t *testing.T) {
	w, _, _, factorRepo := writerFixture()
	model, users, products := fixtureModel()

	if err := w.Write(context.Background(), model, users, products); err != nil {
		t.Fatalf("Write: %v", err)
	}

	factors := factorRepo.replaced[0]
	if len(factors) != 4 {
		t.Fatalf("got %d factor rows, want 4", len(factors))
	}
	if factors[0].ProductID != 10 {
		t.Errorf("factors[0].ProductID = %d, want 10", factors[0].ProductID)
	}
	if diff := cmp.Diff([]float32{1, 0}, factors[0].Factors); diff != "" {
		t.Errorf("factors[0] vector mismatch (-want +got):\n%s", diff)
	}
}

func TestResultWriter_ArtifactDimensionFollowsClampedRank(t *testing.T) {
	// A small catalog clamps the configured rank: 5 users x 8 products
	// with rank 100 yields 4-dimensional factors. The persisted artifact
	// must carry the clamped dimension, not the configured one.
	matrix := mf.NewSparse(5, 8)
	for i := 0; i < 5; i++ {
		for j := 0; j < 8; j++ {
			matrix.Set(i, j, float64((i+1)*(j+2)%7)+1)
		}
	}
	trainer := &SVDTrainer{Iterations: 30, Seed: 7}
	model, err := trainer.Train(matrix, 100)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if model.Rank() != 4 {
		t.Fatalf("model.Rank() = %d, want 4", model.Rank())
	}

	users := NewIndexMap()
	for _, id := range []int64{1, 2, 3, 4, 5} {
		users.Add(id)
	}
	products := NewIndexMap()
	for id := int64(10); id < 18; id++ {
		products.Add(id)
	}

	w, _, _, factorRepo := writerFixture()
	if err := w.Write(context.Background(), model, users, products); err != nil {
		t.Fatalf("Write: %v", err)
	}

	for _, row := range factorRepo.replaced[0] {
		if len(row.Factors) != model.Rank() {
			t.Errorf("product %d factor dimension = %d, want %d",
				row.ProductID, len(row.Factors), model.Rank())
		}
	}
}

func TestResultWriter_ArtifactWriteFailureDoesNotFailRun(t *testing.T) {
	w, simRepo, recRepo, factorRepo := writerFixture()
	factorRepo.replaceFn = func(context.Context, []repository.ItemFactor) error {
		return errors.New(`type "vector" does not exist`)
	}

	model, users, products := fixtureModel()
	if err := w.Write(context.Background(), model, users, products); err != nil {
		t.Fatalf("Write returned %v, want nil on artifact failure", err)
	}
	if len(simRepo.replaced) != 1 || len(recRepo.replaced) != 1 {
		t.Error("derived tables not written")
	}
}

func TestResultWriter_IdempotentReplace(t *testing.T) {
	w, simRepo, recRepo, _ := writerFixture()
	model, users, products := fixtureModel()

	if err := w.Write(context.Background(), model, users, products); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := w.Write(context.Background(), model, users, products); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	if diff := cmp.Diff(simRepo.replaced[0], simRepo.replaced[1]); diff != "" {
		t.Errorf("similarity rows differ between identical runs:\n%s", diff)
	}
	if diff := cmp.Diff(recRepo.replaced[0], recRepo.replaced[1]); diff != "" {
		t.Errorf("recommendation rows differ between identical runs:\n%s", diff)
	}
}

func TestResultWriter_SimilarityWriteErrorStopsRun(t *testing.T) {
	w, simRepo, recRepo, _ := writerFixture()
	writeErr := errors.New("disk full")
	simRepo.replaceFn = func(context.Context, []entity.ProductSimilarity) error {
		return writeErr
	}

	model, users, products := fixtureModel()
	err := w.Write(context.Background(), model, users, products)
	if !errors.Is(err, writeErr) {
		t.Fatalf("Write error = %v, want wrapped %v", err, writeErr)
	}
	if len(recRepo.replaced) != 0 {
		t.Error("recommendation table written after similarity failure")
	}
}
