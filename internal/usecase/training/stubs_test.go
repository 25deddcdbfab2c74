package training

import (
	"context"
	"time"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/pkg/mf"
	"shop-reco/internal/repository"
)

// stubInteractionRepo implements repository.InteractionRepository with
// overridable function fields.
type stubInteractionRepo struct {
	ratingsFn   func(ctx context.Context, start, end time.Time) ([]entity.Rating, error)
	viewsFn     func(ctx context.Context, start, end time.Time) ([]entity.View, error)
	purchasesFn func(ctx context.Context, start, end time.Time) ([]entity.Purchase, error)
}

func (s *stubInteractionRepo) RatingsBetween(ctx context.Context, start, end time.Time) ([]entity.Rating, error) {
	if s.ratingsFn != nil {
		return s.ratingsFn(ctx, start, end)
	}
	return nil, nil
}

func (s *stubInteractionRepo) ViewsBetween(ctx context.Context, start, end time.Time) ([]entity.View, error) {
	if s.viewsFn != nil {
		return s.viewsFn(ctx, start, end)
	}
	return nil, nil
}

func (s *stubInteractionRepo) PurchasesBetween(ctx context.Context, start, end time.Time) ([]entity.Purchase, error) {
	if s.purchasesFn != nil {
		return s.purchasesFn(ctx, start, end)
	}
	return nil, nil
}

func (s *stubInteractionRepo) LatestViewByUser(ctx context.Context, userID int64) (*entity.View, error) {
	return nil, nil
}

// stubSimilarityRepo captures ReplaceAll calls.
type stubSimilarityRepo struct {
	replaced  [][]entity.ProductSimilarity
	replaceFn func(ctx context.Context, rows []entity.ProductSimilarity) error
}

func (s *stubSimilarityRepo) ListForProduct(ctx context.Context, productID int64, limit int) ([]*entity.ProductSimilarity, error) {
	return nil, nil
}

func (s *stubSimilarityRepo) ReplaceAll(ctx context.Context, rows []entity.ProductSimilarity) error {
	s.replaced = append(s.replaced, rows)
	if s.replaceFn != nil {
		return s.replaceFn(ctx, rows)
	}
	return nil
}

// stubRecommendationRepo captures ReplaceAll calls.
type stubRecommendationRepo struct {
	replaced  [][]entity.UserRecommendation
	replaceFn func(ctx context.Context, rows []entity.UserRecommendation) error
}

func (s *stubRecommendationRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.UserRecommendation, error) {
	return nil, nil
}

func (s *stubRecommendationRepo) ReplaceAll(ctx context.Context, rows []entity.UserRecommendation) error {
	s.replaced = append(s.replaced, rows)
	if s.replaceFn != nil {
		return s.replaceFn(ctx, rows)
	}
	return nil
}

// stubItemFactorRepo captures persisted factor vectors.
type stubItemFactorRepo struct {
	replaced  [][]repository.ItemFactor
	replaceFn func(ctx context.Context, factors []repository.ItemFactor) error
}

func (s *stubItemFactorRepo) ReplaceAll(ctx context.Context, factors []repository.ItemFactor) error {
	s.replaced = append(s.replaced, factors)
	if s.replaceFn != nil {
		return s.replaceFn(ctx, factors)
	}
	return nil
}

// stubHistoryRepo records the audit updates applied during a run.
type stubHistoryRepo struct {
	nextID   int64
	created  []string
	finished []finishCall
	createFn func(ctx context.Context, triggeredBy string) (*entity.TrainingJob, error)
	finishFn func(ctx context.Context, historyID int64, status, message string) error
}

type finishCall struct {
	historyID int64
	status    string
	message   string
}

func (s *stubHistoryRepo) Create(ctx context.Context, triggeredBy string) (*entity.TrainingJob, error) {
	if s.createFn != nil {
		return s.createFn(ctx, triggeredBy)
	}
	s.nextID++
	s.created = append(s.created, triggeredBy)
	return &entity.TrainingJob{
		HistoryID:   s.nextID,
		StartTime:   time.Now(),
		Status:      entity.JobStatusRunning,
		TriggeredBy: triggeredBy,
	}, nil
}

func (s *stubHistoryRepo) Finish(ctx context.Context, historyID int64, status, message string) error {
	if s.finishFn != nil {
		return s.finishFn(ctx, historyID, status, message)
	}
	s.finished = append(s.finished, finishCall{historyID: historyID, status: status, message: message})
	return nil
}

func (s *stubHistoryRepo) List(ctx context.Context, limit int) ([]*entity.TrainingJob, error) {
	return nil, nil
}

func (s *stubHistoryRepo) Get(ctx context.Context, historyID int64) (*entity.TrainingJob, error) {
	return nil, nil
}

// stubLock implements repository.TrainingLock.
type stubLock struct {
	held     bool
	err      error
	released int
}

func (s *stubLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if s.held {
		return nil, false, nil
	}
	return func() { s.released++ }, true, nil
}

// stubTrainer returns a fixed model or error.
type stubTrainer struct {
	model *Model
	err   error
	calls []trainCall
}

type trainCall struct {
	rows, cols, rank int
}

func (s *stubTrainer) Train(matrix *mf.Sparse, rank int) (*Model, error) {
	s.calls = append(s.calls, trainCall{rows: matrix.Rows(), cols: matrix.Cols(), rank: rank})
	if s.err != nil {
		return nil, s.err
	}
	if s.model != nil {
		return s.model, nil
	}
	return &Model{
		UserFactors: make([][]float64, matrix.Rows()),
		ItemFactors: make([][]float64, matrix.Cols()),
	}, nil
}
