package training

import (
	"log/slog"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/pkg/mf"
)

// Signal fusion weights. For each (user, product) pair the fused score
// is the maximum across the signals present, not the sum: a product
// rated 2 but also purchased scores 5.0.
const (
	viewWeight    = 0.5
	purchaseScore = 5.0
)

// IndexMap is a bidirectional mapping between original entity IDs and
// dense 0-based matrix indices. Indices are contiguous and assigned in
// first-seen order over the current run's data; a map is built fresh
// per run and never reused across runs.
type IndexMap struct {
	index map[int64]int
	ids   []int64
}

// NewIndexMap returns an empty map.
func NewIndexMap() IndexMap {
	return IndexMap{index: make(map[int64]int)}
}

// Add assigns the next free index to id, or returns the existing one.
func (m *IndexMap) Add(id int64) int {
	if idx, ok := m.index[id]; ok {
		return idx
	}
	idx := len(m.ids)
	m.index[id] = idx
	m.ids = append(m.ids, id)
	return idx
}

// Index returns the dense index for id, if id was seen this run.
func (m IndexMap) Index(id int64) (int, bool) {
	idx, ok := m.index[id]
	return idx, ok
}

// ID returns the original ID at the dense index.
func (m IndexMap) ID(idx int) int64 {
	return m.ids[idx]
}

// Len returns the number of mapped IDs.
func (m IndexMap) Len() int {
	return len(m.ids)
}

// Preprocessor fuses the raw interaction signals into one weighted
// sparse matrix and builds the per-run ID/index maps.
type Preprocessor struct{}

type pairKey struct {
	userID    int64
	productID int64
}

// Process builds the fused interaction matrix for one run.
// An entirely empty interaction set produces a 0x0 matrix and empty
// maps rather than an error.
func (Preprocessor) Process(set entity.InteractionSet) (*mf.Sparse, IndexMap, IndexMap) {
	users := NewIndexMap()
	products := NewIndexMap()
	if set.Empty() {
		return mf.NewSparse(0, 0), users, products
	}

	// Fused score per pair. Ratings deduplicate by keeping the max,
	// which the overall max fusion already guarantees.
	scores := make(map[pairKey]float64)
	bump := func(k pairKey, score float64) {
		if score > scores[k] {
			scores[k] = score
		}
	}

	// Walk the signals in load order so index assignment is
	// deterministic for identical input.
	for _, r := range set.Ratings {
		users.Add(r.UserID)
		products.Add(r.ProductID)
		bump(pairKey{r.UserID, r.ProductID}, r.Score)
	}

	viewCounts := make(map[pairKey]int)
	for _, v := range set.Views {
		users.Add(v.UserID)
		products.Add(v.ProductID)
		viewCounts[pairKey{v.UserID, v.ProductID}]++
	}
	for k, n := range viewCounts {
		bump(k, float64(n)*viewWeight)
	}

	for _, p := range set.Purchases {
		users.Add(p.UserID)
		products.Add(p.ProductID)
		// Flat score for any qualifying purchase, quantity ignored.
		bump(pairKey{p.UserID, p.ProductID}, purchaseScore)
	}

	matrix := mf.NewSparse(users.Len(), products.Len())
	for k, score := range scores {
		ui, _ := users.Index(k.userID)
		pi, _ := products.Index(k.productID)
		matrix.Set(ui, pi, score)
	}

	slog.Info("interaction matrix built",
		slog.Int("users", users.Len()),
		slog.Int("products", products.Len()),
		slog.Int("nonzero", matrix.NNZ()))

	return matrix, users, products
}
