package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/observability/metrics"
	"shop-reco/internal/pkg/mf"
	"shop-reco/internal/repository"
)

// Default derivation parameters.
const (
	DefaultTopNSimilar   = 20
	DefaultTopNRecommend = 50
	DefaultSimThreshold  = 0.01
)

// ResultWriter derives the item-item similarity pairs and per-user
// top-N recommendation lists from a trained model and replaces the
// persisted tables with them. Each table replacement is atomic, but
// the two replacements are separate transactions: a failure between
// them leaves the similarity table new and the recommendation table
// old until the next successful run.
type ResultWriter struct {
	Similarities    repository.SimilarityRepository
	Recommendations repository.UserRecommendationRepository
	// ItemFactors persists the raw factor vectors as a diagnostic
	// artifact. Nil disables artifact persistence.
	ItemFactors repository.ItemFactorRepository

	TopNSimilar   int
	TopNRecommend int
	SimThreshold  float64

	now func() time.Time
}

// NewResultWriter creates a writer with the given derivation limits.
// Non-positive limits fall back to the defaults.
func NewResultWriter(
	similarities repository.SimilarityRepository,
	recommendations repository.UserRecommendationRepository,
	itemFactors repository.ItemFactorRepository,
	topNSimilar, topNRecommend int,
	simThreshold float64,
) *ResultWriter {
	if topNSimilar <= 0 {
		topNSimilar = DefaultTopNSimilar
	}
	if topNRecommend <= 0 {
		topNRecommend = DefaultTopNRecommend
	}
	if simThreshold <= 0 {
		simThreshold = DefaultSimThreshold
	}
	return &ResultWriter{
		Similarities:    similarities,
		Recommendations: recommendations,
		ItemFactors:     itemFactors,
		TopNSimilar:     topNSimilar,
		TopNRecommend:   topNRecommend,
		SimThreshold:    simThreshold,
		now:             time.Now,
	}
}

// Write replaces the derived tables with projections of the model.
// A model with empty factor arrays skips both derivations with a
// warning instead of erroring, so a degenerate run still succeeds.
func (w *ResultWriter) Write(ctx context.Context, model *Model, users, products IndexMap) error {
	if model == nil || model.Empty() {
		slog.Warn("model has no factors, skipping result derivation")
		return nil
	}
	nowFn := w.now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()

	simRows := w.deriveSimilarities(model, products, now)
	if err := w.Similarities.ReplaceAll(ctx, simRows); err != nil {
		return fmt.Errorf("replace similarity table: %w", err)
	}
	metrics.RecordDerivedRows("product_similarity", len(simRows))

	recRows := w.deriveRecommendations(model, users, products, now)
	if err := w.Recommendations.ReplaceAll(ctx, recRows); err != nil {
		return fmt.Errorf("replace recommendation table: %w", err)
	}
	metrics.RecordDerivedRows("user_recommendations", len(recRows))

	// The factor table is a diagnostic artifact, not a serving input.
	// A database without pgvector must not fail the run, so this write
	// degrades to a warning.
	if w.ItemFactors != nil {
		factors := itemFactorRows(model, products)
		if err := w.ItemFactors.ReplaceAll(ctx, factors); err != nil {
			slog.Warn("item factor artifact not persisted",
				slog.Int("rows", len(factors)),
				slog.Any("error", err))
		} else {
			metrics.RecordDerivedRows("item_factors", len(factors))
		}
	}

	slog.Info("derived tables replaced",
		slog.Int("similarity_rows", len(simRows)),
		slog.Int("recommendation_rows", len(recRows)))

	return nil
}

// deriveSimilarities computes pairwise cosine similarity over item
// factors and keeps, per item, the top-N other items with a score at
// or above the threshold. Pairs are stored directed: the a->b list is
// not symmetric in storage.
func (w *ResultWriter) deriveSimilarities(model *Model, products IndexMap, now time.Time) []entity.ProductSimilarity {
	n := len(model.ItemFactors)
	rows := make([]entity.ProductSimilarity, 0, n*w.TopNSimilar)
	scores := make([]float64, n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			scores[j] = mf.Cosine(model.ItemFactors[i], model.ItemFactors[j])
		}
		top := mf.TopN(scores, w.TopNSimilar, func(j int) bool {
			return j == i || scores[j] < w.SimThreshold
		})
		for _, j := range top {
			rows = append(rows, entity.ProductSimilarity{
				ProductIDA: products.ID(i),
				ProductIDB: products.ID(j),
				Score:      scores[j],
				UpdatedAt:  now,
			})
		}
	}
	return rows
}

// deriveRecommendations scores every item for every user and keeps the
// per-user top-N, ranked 1..K in descending score order with ties
// broken by item iteration order.
func (w *ResultWriter) deriveRecommendations(model *Model, users, products IndexMap, now time.Time) []entity.UserRecommendation {
	rows := make([]entity.UserRecommendation, 0, len(model.UserFactors)*w.TopNRecommend)
	scores := make([]float64, len(model.ItemFactors))

	for u, userVec := range model.UserFactors {
		for j, itemVec := range model.ItemFactors {
			scores[j] = mf.Dot(userVec, itemVec)
		}
		top := mf.TopN(scores, w.TopNRecommend, nil)
		for rank, j := range top {
			rows = append(rows, entity.UserRecommendation{
				UserID:    users.ID(u),
				ProductID: products.ID(j),
				Score:     scores[j],
				Rank:      rank + 1,
				UpdatedAt: now,
			})
		}
	}
	return rows
}

func itemFactorRows(model *Model, products IndexMap) []repository.ItemFactor {
	rows := make([]repository.ItemFactor, 0, len(model.ItemFactors))
	for i, vec := range model.ItemFactors {
		f := make([]float32, len(vec))
		for c, v := range vec {
			f[c] = float32(v)
		}
		rows = append(rows, repository.ItemFactor{
			ProductID: products.ID(i),
			Factors:   f,
		})
	}
	return rows
}
