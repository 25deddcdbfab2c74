package recommend_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-reco/internal/domain/entity"
	handler "shop-reco/internal/handler/http/recommend"
	recUC "shop-reco/internal/usecase/recommend"
)

func TestPersonalizedHandler_StoredRows(t *testing.T) {
	svc := newService()
	svc.Recommendations = &stubRecommendationRepo{rows: []*entity.UserRecommendation{
		{UserID: 100, ProductID: 3, Score: 4.2, Rank: 1},
		{UserID: 100, ProductID: 2, Score: 3.1, Rank: 2},
	}}
	h := handler.PersonalizedHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/recommendations/users/100", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var out handler.PersonalizedDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.RecommendationType != recUC.TypePersonalized {
		t.Errorf("type = %q, want %q", out.RecommendationType, recUC.TypePersonalized)
	}
	if out.UserID != 100 {
		t.Errorf("user_id = %d, want 100", out.UserID)
	}
	if len(out.Items) != 2 || out.Items[0].ID != 3 {
		t.Errorf("items = %+v, want monitor first", out.Items)
	}
	if out.BasedOnProductID != 0 {
		t.Errorf("based_on_product_id = %d, want unset", out.BasedOnProductID)
	}
}

func TestPersonalizedHandler_HistoryFallback(t *testing.T) {
	svc := newService()
	svc.Interactions = &stubInteractionRepo{latestView: &entity.View{
		UserID:    100,
		ProductID: 1,
		ViewedAt:  time.Now(),
	}}
	h := handler.PersonalizedHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/recommendations/users/100", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out handler.PersonalizedDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.RecommendationType != recUC.TypeBasedOnHistory {
		t.Errorf("type = %q, want %q", out.RecommendationType, recUC.TypeBasedOnHistory)
	}
	if out.BasedOnProductID != 1 || out.BasedOnProductName != "Keyboard" {
		t.Errorf("based_on = %d %q, want 1 Keyboard", out.BasedOnProductID, out.BasedOnProductName)
	}
}

func TestPersonalizedHandler_LatestFallback(t *testing.T) {
	h := handler.PersonalizedHandler{Svc: newService()}

	req := httptest.NewRequest(http.MethodGet, "/recommendations/users/100", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out handler.PersonalizedDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.RecommendationType != recUC.TypeLatestProducts {
		t.Errorf("type = %q, want %q", out.RecommendationType, recUC.TypeLatestProducts)
	}
	if len(out.Items) == 0 {
		t.Error("items empty, want latest products")
	}
}

func TestPersonalizedHandler_UnknownUser(t *testing.T) {
	h := handler.PersonalizedHandler{Svc: newService()}

	req := httptest.NewRequest(http.MethodGet, "/recommendations/users/999", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPersonalizedHandler_InvalidID(t *testing.T) {
	h := handler.PersonalizedHandler{Svc: newService()}

	req := httptest.NewRequest(http.MethodGet, "/recommendations/users/zero", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
