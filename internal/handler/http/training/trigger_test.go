package training_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shop-reco/internal/domain/entity"
	handler "shop-reco/internal/handler/http/training"
	"shop-reco/internal/repository"
	recUC "shop-reco/internal/usecase/recommend"
	trainUC "shop-reco/internal/usecase/training"
)

type stubInteractionRepo struct{ ratings []entity.Rating }

func (s *stubInteractionRepo) RatingsBetween(_ context.Context, _, _ time.Time) ([]entity.Rating, error) {
	return s.ratings, nil
}

func (s *stubInteractionRepo) ViewsBetween(_ context.Context, _, _ time.Time) ([]entity.View, error) {
	return nil, nil
}

func (s *stubInteractionRepo) PurchasesBetween(_ context.Context, _, _ time.Time) ([]entity.Purchase, error) {
	return nil, nil
}

func (s *stubInteractionRepo) LatestViewByUser(_ context.Context, _ int64) (*entity.View, error) {
	return nil, nil
}

type stubSimilarityRepo struct{}

func (s *stubSimilarityRepo) ListForProduct(_ context.Context, _ int64, _ int) ([]*entity.ProductSimilarity, error) {
	return nil, nil
}

func (s *stubSimilarityRepo) ReplaceAll(_ context.Context, _ []entity.ProductSimilarity) error {
	return nil
}

type stubRecommendationRepo struct{}

func (s *stubRecommendationRepo) ListForUser(_ context.Context, _ int64, _ int) ([]*entity.UserRecommendation, error) {
	return nil, nil
}

func (s *stubRecommendationRepo) ReplaceAll(_ context.Context, _ []entity.UserRecommendation) error {
	return nil
}

type stubHistoryRepo struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*entity.TrainingJob
}

func newStubHistoryRepo() *stubHistoryRepo {
	return &stubHistoryRepo{jobs: make(map[int64]*entity.TrainingJob)}
}

func (s *stubHistoryRepo) Create(_ context.Context, triggeredBy string) (*entity.TrainingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	job := &entity.TrainingJob{
		HistoryID:   s.nextID,
		StartTime:   time.Now(),
		Status:      entity.JobStatusRunning,
		TriggeredBy: triggeredBy,
	}
	s.jobs[job.HistoryID] = job
	return job, nil
}

func (s *stubHistoryRepo) Finish(_ context.Context, historyID int64, status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[historyID]
	end := time.Now()
	job.EndTime = &end
	job.Status = status
	job.Message = message
	return nil
}

func (s *stubHistoryRepo) List(_ context.Context, limit int) ([]*entity.TrainingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.TrainingJob, 0, len(s.jobs))
	for id := s.nextID; id > 0 && len(out) < limit; id-- {
		out = append(out, s.jobs[id])
	}
	return out, nil
}

func (s *stubHistoryRepo) Get(_ context.Context, historyID int64) (*entity.TrainingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[historyID], nil
}

type stubLock struct{ held bool }

func (s *stubLock) TryAcquire(_ context.Context) (func(), bool, error) {
	if s.held {
		return nil, false, nil
	}
	return func() {}, true, nil
}

func fixture(lock repository.TrainingLock) (*recUC.Service, *stubHistoryRepo) {
	history := newStubHistoryRepo()
	interactions := &stubInteractionRepo{ratings: []entity.Rating{
		{UserID: 1, ProductID: 10, Score: 4},
		{UserID: 1, ProductID: 11, Score: 5},
		{UserID: 2, ProductID: 10, Score: 3},
		{UserID: 2, ProductID: 12, Score: 2},
	}}

	job := trainUC.NewJob(
		trainUC.NewDataLoader(interactions, 0),
		&trainUC.SVDTrainer{Seed: 1},
		trainUC.NewResultWriter(&stubSimilarityRepo{}, &stubRecommendationRepo{}, nil, 0, 0, 0.01),
		history,
		lock,
		10,
	)

	return &recUC.Service{History: history, Job: job}, history
}

func TestTriggerHandler_Success(t *testing.T) {
	svc, history := fixture(&stubLock{})
	h := handler.TriggerHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/admin/recommendations/train", nil)
	req.Header.Set("X-Admin-ID", "admin-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var out handler.TriggerDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != entity.JobStatusSuccess {
		t.Errorf("status = %q, want SUCCESS (message %q)", out.Status, out.Message)
	}
	if out.TriggeredBy != "MANUAL_admin-7" {
		t.Errorf("triggered_by = %q, want MANUAL_admin-7", out.TriggeredBy)
	}
	if out.HistoryID == 0 {
		t.Error("history_id unset")
	}

	job, _ := history.Get(context.Background(), out.HistoryID)
	if job == nil || !job.Terminal() {
		t.Errorf("audit record = %+v, want terminal", job)
	}
}

func TestTriggerHandler_MissingAdminID(t *testing.T) {
	svc, _ := fixture(&stubLock{})
	h := handler.TriggerHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/admin/recommendations/train", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTriggerHandler_LockHeld(t *testing.T) {
	svc, _ := fixture(&stubLock{held: true})
	h := handler.TriggerHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/admin/recommendations/train", nil)
	req.Header.Set("X-Admin-ID", "admin-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}

	var out handler.TriggerDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != entity.JobStatusFailed {
		t.Errorf("status = %q, want FAILED", out.Status)
	}
}
