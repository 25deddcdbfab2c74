package training

import (
	"net/http"

	recUC "shop-reco/internal/usecase/recommend"
)

// Register registers the admin training endpoints with the given mux.
// The gateway authenticates admins before forwarding and sets the
// X-Admin-ID header, so no auth middleware runs here.
func Register(mux *http.ServeMux, svc *recUC.Service) {
	mux.Handle("POST   /admin/recommendations/train", TriggerHandler{svc})
	mux.Handle("GET    /admin/recommendations/training-history", HistoryHandler{svc})
	mux.Handle("GET    /admin/recommendations/training-history/", DetailHandler{svc})
}
