package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/observability/metrics"
)

type stubProductRepo struct {
	products map[int64]*entity.Product
	latest   []*entity.Product

	getByIDsCalls int
}

func (s *stubProductRepo) Get(ctx context.Context, id int64) (*entity.Product, error) {
	return s.products[id], nil
}

func (s *stubProductRepo) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error) {
	s.getByIDsCalls++
	var out []*entity.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) Latest(ctx context.Context, limit int) ([]*entity.Product, error) {
	if len(s.latest) > limit {
		return s.latest[:limit], nil
	}
	return s.latest, nil
}

func (s *stubProductRepo) ListActive(ctx context.Context) ([]*entity.Product, error) {
	return nil, nil
}

type stubUserRepo struct {
	existing map[int64]bool
}

func (s *stubUserRepo) Exists(ctx context.Context, id int64) (bool, error) {
	return s.existing[id], nil
}

type stubViewRepo struct {
	lastView *entity.View
}

func (s *stubViewRepo) RatingsBetween(ctx context.Context, start, end time.Time) ([]entity.Rating, error) {
	return nil, nil
}

func (s *stubViewRepo) ViewsBetween(ctx context.Context, start, end time.Time) ([]entity.View, error) {
	return nil, nil
}

func (s *stubViewRepo) PurchasesBetween(ctx context.Context, start, end time.Time) ([]entity.Purchase, error) {
	return nil, nil
}

func (s *stubViewRepo) LatestViewByUser(ctx context.Context, userID int64) (*entity.View, error) {
	return s.lastView, nil
}

type stubSimilarityReader struct {
	byProduct map[int64][]*entity.ProductSimilarity
	err       error
}

func (s *stubSimilarityReader) ListForProduct(ctx context.Context, productID int64, limit int) ([]*entity.ProductSimilarity, error) {
	if s.err != nil {
		return nil, s.err
	}
	rows := s.byProduct[productID]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *stubSimilarityReader) ReplaceAll(ctx context.Context, rows []entity.ProductSimilarity) error {
	return nil
}

type stubRecommendationReader struct {
	byUser map[int64][]*entity.UserRecommendation
}

func (s *stubRecommendationReader) ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.UserRecommendation, error) {
	rows := s.byUser[userID]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *stubRecommendationReader) ReplaceAll(ctx context.Context, rows []entity.UserRecommendation) error {
	return nil
}

type stubHistoryReader struct {
	jobs      map[int64]*entity.TrainingJob
	listLimit int
}

func (s *stubHistoryReader) Create(ctx context.Context, triggeredBy string) (*entity.TrainingJob, error) {
	return nil, errors.New("not implemented")
}

func (s *stubHistoryReader) Finish(ctx context.Context, historyID int64, status, message string) error {
	return errors.New("not implemented")
}

func (s *stubHistoryReader) List(ctx context.Context, limit int) ([]*entity.TrainingJob, error) {
	s.listLimit = limit
	var out []*entity.TrainingJob
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (s *stubHistoryReader) Get(ctx context.Context, historyID int64) (*entity.TrainingJob, error) {
	return s.jobs[historyID], nil
}

type mapCache struct {
	data map[string][]byte
	hits int
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, ok := c.data[key]
	if ok {
		c.hits++
	}
	return raw, ok
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte) {
	c.data[key] = value
}

func activeProduct(id int64, name string) *entity.Product {
	return &entity.Product{ID: id, Name: name, Price: 1000, IsActive: true}
}

func serviceFixture() (*Service, *stubProductRepo, *stubSimilarityReader, *stubRecommendationReader, *stubViewRepo) {
	products := &stubProductRepo{
		products: map[int64]*entity.Product{
			1: activeProduct(1, "Keyboard"),
			2: activeProduct(2, "Mouse"),
			3: activeProduct(3, "Monitor"),
			4: {ID: 4, Name: "Discontinued", IsActive: false},
		},
		latest: []*entity.Product{activeProduct(3, "Monitor"), activeProduct(2, "Mouse")},
	}
	sims := &stubSimilarityReader{byProduct: map[int64][]*entity.ProductSimilarity{}}
	recs := &stubRecommendationReader{byUser: map[int64][]*entity.UserRecommendation{}}
	views := &stubViewRepo{}

	svc := &Service{
		Products:        products,
		Users:           &stubUserRepo{existing: map[int64]bool{100: true}},
		Interactions:    views,
		Similarities:    sims,
		Recommendations: recs,
		History:         &stubHistoryReader{},
	}
	return svc, products, sims, recs, views
}

func TestSimilarProducts_InvalidID(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()
	if _, err := svc.SimilarProducts(context.Background(), 0, 10); !errors.Is(err, ErrInvalidID) {
		t.Errorf("err = %v, want ErrInvalidID", err)
	}
}

func TestSimilarProducts_UnknownProduct(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()
	if _, err := svc.SimilarProducts(context.Background(), 999, 10); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestSimilarProducts_InactiveProduct(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()
	if _, err := svc.SimilarProducts(context.Background(), 4, 10); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestSimilarProducts_HydratedAndOrdered(t *testing.T) {
	svc, _, sims, _, _ := serviceFixture()
	sims.byProduct[1] = []*entity.ProductSimilarity{
		{ProductIDA: 1, ProductIDB: 2, Score: 0.9},
		{ProductIDA: 1, ProductIDB: 4, Score: 0.8}, // inactive, dropped
		{ProductIDA: 1, ProductIDB: 3, Score: 0.7},
	}

	res, err := svc.SimilarProducts(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("SimilarProducts: %v", err)
	}
	if res.Product.ID != 1 {
		t.Errorf("target product = %d, want 1", res.Product.ID)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2 (inactive dropped)", len(res.Items))
	}
	if res.Items[0].Product.ID != 2 || res.Items[1].Product.ID != 3 {
		t.Errorf("item order = [%d %d], want [2 3]", res.Items[0].Product.ID, res.Items[1].Product.ID)
	}
	if res.Items[0].Product.Name != "Mouse" {
		t.Errorf("item not hydrated: %+v", res.Items[0].Product)
	}
}

func TestSimilarProducts_EmptyListIsSuccess(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()

	res, err := svc.SimilarProducts(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("SimilarProducts: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("got %d items, want 0", len(res.Items))
	}
}

func TestSimilarProducts_CacheShortCircuits(t *testing.T) {
	svc, products, sims, _, _ := serviceFixture()
	cache := &mapCache{data: map[string][]byte{}}
	svc.Cache = cache
	sims.byProduct[1] = []*entity.ProductSimilarity{
		{ProductIDA: 1, ProductIDB: 2, Score: 0.9},
	}

	if _, err := svc.SimilarProducts(context.Background(), 1, 10); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	callsAfterMiss := products.getByIDsCalls

	res, err := svc.SimilarProducts(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
	if products.getByIDsCalls != callsAfterMiss {
		t.Error("cached lookup still hit the catalog")
	}
	if len(res.Items) != 1 || res.Items[0].Product.ID != 2 {
		t.Errorf("cached result mismatch: %+v", res.Items)
	}
}

func TestPersonalized_UnknownUser(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()
	if _, err := svc.PersonalizedRecommendations(context.Background(), 999, 10); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestPersonalized_StoredRowsWin(t *testing.T) {
	svc, _, _, recs, views := serviceFixture()
	recs.byUser[100] = []*entity.UserRecommendation{
		{UserID: 100, ProductID: 3, Score: 4.2, Rank: 1},
		{UserID: 100, ProductID: 2, Score: 3.1, Rank: 2},
	}
	views.lastView = &entity.View{UserID: 100, ProductID: 1}

	res, err := svc.PersonalizedRecommendations(context.Background(), 100, 10)
	if err != nil {
		t.Fatalf("PersonalizedRecommendations: %v", err)
	}
	if res.Type != TypePersonalized {
		t.Errorf("Type = %q, want %q", res.Type, TypePersonalized)
	}
	if len(res.Items) != 2 || res.Items[0].Product.ID != 3 {
		t.Errorf("items = %+v, want rank order [3 2]", res.Items)
	}
}

func TestPersonalized_FallsBackToHistory(t *testing.T) {
	svc, _, sims, _, views := serviceFixture()
	views.lastView = &entity.View{UserID: 100, ProductID: 1}
	sims.byProduct[1] = []*entity.ProductSimilarity{
		{ProductIDA: 1, ProductIDB: 2, Score: 0.9},
	}

	res, err := svc.PersonalizedRecommendations(context.Background(), 100, 10)
	if err != nil {
		t.Fatalf("PersonalizedRecommendations: %v", err)
	}
	if res.Type != TypeBasedOnHistory {
		t.Errorf("Type = %q, want %q", res.Type, TypeBasedOnHistory)
	}
	if res.BasedOnProductID != 1 || res.BasedOnProductName != "Keyboard" {
		t.Errorf("BasedOn = (%d, %q), want (1, Keyboard)", res.BasedOnProductID, res.BasedOnProductName)
	}
	if len(res.Items) != 1 || res.Items[0].Product.ID != 2 {
		t.Errorf("items = %+v", res.Items)
	}
}

func TestPersonalized_HistoryFallbackCountsOneStrategy(t *testing.T) {
	svc, _, sims, _, views := serviceFixture()
	views.lastView = &entity.View{UserID: 100, ProductID: 1}
	sims.byProduct[1] = []*entity.ProductSimilarity{
		{ProductIDA: 1, ProductIDB: 2, Score: 0.9},
	}

	similarBefore := testutil.ToFloat64(
		metrics.RecommendationsServedTotal.WithLabelValues("similar_products"))
	historyBefore := testutil.ToFloat64(
		metrics.RecommendationsServedTotal.WithLabelValues(TypeBasedOnHistory))

	if _, err := svc.PersonalizedRecommendations(context.Background(), 100, 10); err != nil {
		t.Fatalf("PersonalizedRecommendations: %v", err)
	}

	// One request lands on exactly one strategy counter: the internal
	// similarity lookup behind the fallback must not count as a
	// separately served similar-products request.
	similarAfter := testutil.ToFloat64(
		metrics.RecommendationsServedTotal.WithLabelValues("similar_products"))
	historyAfter := testutil.ToFloat64(
		metrics.RecommendationsServedTotal.WithLabelValues(TypeBasedOnHistory))

	if got := similarAfter - similarBefore; got != 0 {
		t.Errorf("similar_products counter advanced by %v, want 0", got)
	}
	if got := historyAfter - historyBefore; got != 1 {
		t.Errorf("based_on_history counter advanced by %v, want 1", got)
	}
}

func TestPersonalized_NoHistoryFallsToLatest(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()

	res, err := svc.PersonalizedRecommendations(context.Background(), 100, 10)
	if err != nil {
		t.Fatalf("PersonalizedRecommendations: %v", err)
	}
	if res.Type != TypeLatestProducts {
		t.Errorf("Type = %q, want %q", res.Type, TypeLatestProducts)
	}
	if len(res.Items) != 2 {
		t.Errorf("got %d items, want 2 latest products", len(res.Items))
	}
}

func TestPersonalized_ViewWithoutSimilaritiesFallsToLatest(t *testing.T) {
	svc, _, _, _, views := serviceFixture()
	views.lastView = &entity.View{UserID: 100, ProductID: 1}

	res, err := svc.PersonalizedRecommendations(context.Background(), 100, 10)
	if err != nil {
		t.Fatalf("PersonalizedRecommendations: %v", err)
	}
	if res.Type != TypeLatestProducts {
		t.Errorf("Type = %q, want %q", res.Type, TypeLatestProducts)
	}
}

func TestPersonalized_ViewOfInactiveProductFallsToLatest(t *testing.T) {
	svc, _, sims, _, views := serviceFixture()
	views.lastView = &entity.View{UserID: 100, ProductID: 4}
	sims.byProduct[4] = []*entity.ProductSimilarity{
		{ProductIDA: 4, ProductIDB: 2, Score: 0.9},
	}

	res, err := svc.PersonalizedRecommendations(context.Background(), 100, 10)
	if err != nil {
		t.Fatalf("PersonalizedRecommendations: %v", err)
	}
	if res.Type != TypeLatestProducts {
		t.Errorf("Type = %q, want %q", res.Type, TypeLatestProducts)
	}
}

func TestTriggerTraining_EmptyAdminID(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()
	if _, err := svc.TriggerTraining(context.Background(), ""); !errors.Is(err, ErrInvalidID) {
		t.Errorf("err = %v, want ErrInvalidID", err)
	}
}

func TestTrainingJobDetail(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()
	end := time.Date(2026, 5, 1, 2, 3, 4, 0, time.UTC)
	svc.History = &stubHistoryReader{jobs: map[int64]*entity.TrainingJob{
		7: {
			HistoryID:   7,
			StartTime:   end.Add(-90 * time.Second),
			EndTime:     &end,
			Status:      entity.JobStatusSuccess,
			TriggeredBy: entity.TriggeredBySchedule,
		},
	}}

	job, err := svc.TrainingJobDetail(context.Background(), 7)
	if err != nil {
		t.Fatalf("TrainingJobDetail: %v", err)
	}
	if d := job.DurationSeconds(); d == nil || *d != 90 {
		t.Errorf("DurationSeconds = %v, want 90", d)
	}

	if _, err := svc.TrainingJobDetail(context.Background(), 8); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
	if _, err := svc.TrainingJobDetail(context.Background(), 0); !errors.Is(err, ErrInvalidID) {
		t.Errorf("err = %v, want ErrInvalidID", err)
	}
}

func TestTrainingHistory_ClampsLimit(t *testing.T) {
	svc, _, _, _, _ := serviceFixture()
	history := &stubHistoryReader{}
	svc.History = history

	if _, err := svc.TrainingHistory(context.Background(), 0); err != nil {
		t.Fatalf("TrainingHistory: %v", err)
	}
	if history.listLimit != defaultLimit {
		t.Errorf("limit = %d, want default %d", history.listLimit, defaultLimit)
	}

	if _, err := svc.TrainingHistory(context.Background(), 5000); err != nil {
		t.Fatalf("TrainingHistory: %v", err)
	}
	if history.listLimit != maxLimit {
		t.Errorf("limit = %d, want max %d", history.listLimit, maxLimit)
	}
}
