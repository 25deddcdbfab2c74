package training_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-reco/internal/domain/entity"
	handler "shop-reco/internal/handler/http/training"
	recUC "shop-reco/internal/usecase/recommend"
)

func historyFixture(t *testing.T) *recUC.Service {
	t.Helper()
	history := newStubHistoryRepo()
	start := time.Date(2026, 3, 1, 5, 30, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	history.jobs[1] = &entity.TrainingJob{
		HistoryID:   1,
		StartTime:   start,
		EndTime:     &end,
		Status:      entity.JobStatusSuccess,
		TriggeredBy: entity.TriggeredBySchedule,
		Message:     "training completed: users=3 items=3 coverage=0.0000",
	}
	history.jobs[2] = &entity.TrainingJob{
		HistoryID:   2,
		StartTime:   start.Add(time.Hour),
		Status:      entity.JobStatusRunning,
		TriggeredBy: entity.TriggeredByAdmin("admin-1"),
	}
	history.nextID = 2

	return &recUC.Service{History: history}
}

func TestHistoryHandler_ListsNewestFirst(t *testing.T) {
	h := handler.HistoryHandler{Svc: historyFixture(t)}

	req := httptest.NewRequest(http.MethodGet, "/admin/recommendations/training-history", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out []handler.JobDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("jobs = %d, want 2", len(out))
	}
	if out[0].HistoryID != 2 || out[1].HistoryID != 1 {
		t.Errorf("order = [%d %d], want [2 1]", out[0].HistoryID, out[1].HistoryID)
	}
	if out[0].DurationSeconds != nil {
		t.Error("running job should have no duration")
	}
}

func TestHistoryHandler_InvalidLimit(t *testing.T) {
	h := handler.HistoryHandler{Svc: historyFixture(t)}

	req := httptest.NewRequest(http.MethodGet, "/admin/recommendations/training-history?limit=-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDetailHandler_ReturnsDuration(t *testing.T) {
	h := handler.DetailHandler{Svc: historyFixture(t)}

	req := httptest.NewRequest(http.MethodGet, "/admin/recommendations/training-history/1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out handler.JobDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.DurationSeconds == nil || *out.DurationSeconds != 90 {
		t.Errorf("duration = %v, want 90", out.DurationSeconds)
	}
	if out.Status != entity.JobStatusSuccess {
		t.Errorf("status = %q, want SUCCESS", out.Status)
	}
}

func TestDetailHandler_NotFound(t *testing.T) {
	h := handler.DetailHandler{Svc: historyFixture(t)}

	req := httptest.NewRequest(http.MethodGet, "/admin/recommendations/training-history/99", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDetailHandler_InvalidID(t *testing.T) {
	h := handler.DetailHandler{Svc: historyFixture(t)}

	req := httptest.NewRequest(http.MethodGet, "/admin/recommendations/training-history/zero", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
