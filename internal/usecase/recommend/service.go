package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/observability/metrics"
	"shop-reco/internal/repository"
	"shop-reco/internal/usecase/training"
)

// Recommendation strategies, reported to callers so clients can tell a
// personalized list from a fallback.
const (
	TypePersonalized   = "personalized"
	TypeBasedOnHistory = "based_on_history"
	TypeLatestProducts = "latest_products"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ScoredProduct is one hydrated product in a served list.
type ScoredProduct struct {
	Product *entity.Product
	Score   float64
}

// SimilarProductsResult is the outcome of a similarity lookup.
// An empty Items list is a valid success.
type SimilarProductsResult struct {
	Product *entity.Product
	Items   []ScoredProduct
}

// PersonalizedResult is the outcome of a personalized lookup. Type
// names the strategy that produced the list; the BasedOn fields are
// set only for the history fallback.
type PersonalizedResult struct {
	Type               string
	Items              []ScoredProduct
	BasedOnProductID   int64
	BasedOnProductName string
}

// ListCache caches serialized similarity responses. Nil-safe via the
// Service: a Service without a cache reads straight from the database.
type ListCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Service provides the recommendation serving use cases and the
// admin-facing training operations.
type Service struct {
	Products        repository.ProductRepository
	Users           repository.UserRepository
	Interactions    repository.InteractionRepository
	Similarities    repository.SimilarityRepository
	Recommendations repository.UserRecommendationRepository
	History         repository.TrainingHistoryRepository

	// Job runs the offline pipeline for TriggerTraining.
	Job *training.Job

	// Cache, when non-nil, short-circuits similarity lookups.
	Cache ListCache
}

// SimilarProducts returns products similar to productID, hydrated with
// catalog detail and ordered by descending similarity score. The
// target must exist and be active; a product with no stored
// similarities yields an empty list, not an error.
func (s *Service) SimilarProducts(ctx context.Context, productID int64, limit int) (*SimilarProductsResult, error) {
	res, err := s.similarProducts(ctx, productID, limit)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			metrics.RecordServingError("similar_products", "not_found")
		}
		return nil, err
	}
	metrics.RecordRecommendationServed("similar_products")
	return res, nil
}

// similarProducts is the unmetered lookup behind SimilarProducts. The
// history fallback reuses it, so serving metrics are recorded only at
// the public entry points to keep one request on one strategy counter.
func (s *Service) similarProducts(ctx context.Context, productID int64, limit int) (*SimilarProductsResult, error) {
	if productID <= 0 {
		return nil, ErrInvalidID
	}
	limit = clampLimit(limit)

	cacheKey := fmt.Sprintf("reco:similar:%d:%d", productID, limit)
	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, cacheKey); ok {
			var cached SimilarProductsResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	target, err := s.Products.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if target == nil || !target.IsActive {
		return nil, ErrProductNotFound
	}

	rows, err := s.Similarities.ListForProduct(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list similarities: %w", err)
	}

	items, err := s.hydrate(ctx, rowsToScores(rows))
	if err != nil {
		return nil, err
	}
	// Stored rows are already ordered, but hydration can drop
	// inactive products; re-sort before truncating.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > limit {
		items = items[:limit]
	}

	res := &SimilarProductsResult{Product: target, Items: items}
	if s.Cache != nil {
		if raw, err := json.Marshal(res); err == nil {
			s.Cache.Set(ctx, cacheKey, raw)
		}
	}
	return res, nil
}

// PersonalizedRecommendations returns the stored top-N list for the
// user, falling back first to similarity on the user's most recent
// view and finally to the latest catalog products. The terminal
// fallback always succeeds, possibly with an empty list.
func (s *Service) PersonalizedRecommendations(ctx context.Context, userID int64, limit int) (*PersonalizedResult, error) {
	if userID <= 0 {
		return nil, ErrInvalidID
	}
	limit = clampLimit(limit)

	exists, err := s.Users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		metrics.RecordServingError("personalized", "not_found")
		return nil, ErrUserNotFound
	}

	rows, err := s.Recommendations.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	if len(rows) > 0 {
		items, err := s.hydrate(ctx, recRowsToScores(rows))
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			metrics.RecordRecommendationServed(TypePersonalized)
			return &PersonalizedResult{Type: TypePersonalized, Items: items}, nil
		}
	}

	return s.fallback(ctx, userID, limit)
}

// fallback runs the ordered fallback chain for a user without usable
// personalized rows.
func (s *Service) fallback(ctx context.Context, userID int64, limit int) (*PersonalizedResult, error) {
	view, err := s.Interactions.LatestViewByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest view: %w", err)
	}
	if view != nil {
		similar, err := s.similarProducts(ctx, view.ProductID, limit)
		switch {
		case err == nil && len(similar.Items) > 0:
			metrics.RecordRecommendationServed(TypeBasedOnHistory)
			return &PersonalizedResult{
				Type:               TypeBasedOnHistory,
				Items:              similar.Items,
				BasedOnProductID:   similar.Product.ID,
				BasedOnProductName: similar.Product.Name,
			}, nil
		case err == nil:
			// Viewed product has no stored similarities; fall through.
		default:
			// The viewed product may have gone inactive since the
			// view; any history failure falls through to the terminal
			// fallback rather than failing the request.
			slog.Debug("history fallback unavailable",
				slog.Int64("user_id", userID),
				slog.Int64("viewed_product_id", view.ProductID),
				slog.Any("error", err))
		}
	}

	latest, err := s.Products.Latest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("latest products: %w", err)
	}
	items := make([]ScoredProduct, 0, len(latest))
	for _, p := range latest {
		items = append(items, ScoredProduct{Product: p})
	}
	metrics.RecordRecommendationServed(TypeLatestProducts)
	return &PersonalizedResult{Type: TypeLatestProducts, Items: items}, nil
}

// TriggerTraining runs the offline pipeline synchronously on behalf of
// an admin and returns the structured job result. The result carries
// failures as data; this method errors only on empty input.
func (s *Service) TriggerTraining(ctx context.Context, adminID string) (training.Result, error) {
	if adminID == "" {
		return training.Result{}, fmt.Errorf("trigger training: %w: empty admin ID", ErrInvalidID)
	}
	return s.Job.RunManual(ctx, adminID), nil
}

// TrainingHistory lists recent training job records, newest first.
func (s *Service) TrainingHistory(ctx context.Context, limit int) ([]*entity.TrainingJob, error) {
	limit = clampLimit(limit)
	jobs, err := s.History.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list training history: %w", err)
	}
	return jobs, nil
}

// TrainingJobDetail returns a single training job record.
// Returns ErrJobNotFound if no record has the ID.
func (s *Service) TrainingJobDetail(ctx context.Context, historyID int64) (*entity.TrainingJob, error) {
	if historyID <= 0 {
		return nil, ErrInvalidID
	}
	job, err := s.History.Get(ctx, historyID)
	if err != nil {
		return nil, fmt.Errorf("get training job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// hydrate resolves product IDs into catalog detail, preserving the
// given order and silently dropping products that are gone or
// inactive.
func (s *Service) hydrate(ctx context.Context, scored []ScoredProduct) ([]ScoredProduct, error) {
	if len(scored) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(scored))
	for _, sp := range scored {
		ids = append(ids, sp.Product.ID)
	}
	products, err := s.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate products: %w", err)
	}
	byID := make(map[int64]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]ScoredProduct, 0, len(scored))
	for _, sp := range scored {
		p, ok := byID[sp.Product.ID]
		if !ok {
			continue
		}
		items = append(items, ScoredProduct{Product: p, Score: sp.Score})
	}
	return items, nil
}

func rowsToScores(rows []*entity.ProductSimilarity) []ScoredProduct {
	scored := make([]ScoredProduct, 0, len(rows))
	for _, r := range rows {
		scored = append(scored, ScoredProduct{
			Product: &entity.Product{ID: r.ProductIDB},
			Score:   r.Score,
		})
	}
	return scored
}

func recRowsToScores(rows []*entity.UserRecommendation) []ScoredProduct {
	scored := make([]ScoredProduct, 0, len(rows))
	for _, r := range rows {
		scored = append(scored, ScoredProduct{
			Product: &entity.Product{ID: r.ProductID},
			Score:   r.Score,
		})
	}
	return scored
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
