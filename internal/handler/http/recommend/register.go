package recommend

import (
	"net/http"

	"shop-reco/internal/handler/http/middleware"
	recUC "shop-reco/internal/usecase/recommend"
)

// Register registers the recommendation read endpoints with the given
// mux. The similar-products endpoint is public and goes through the
// per-IP rate limiter; the per-user endpoint sits behind the gateway's
// authentication and is not limited here.
func Register(mux *http.ServeMux, svc *recUC.Service, limiter *middleware.IPRateLimiter) {
	mux.Handle("GET    /recommendations/products/", limiter.Middleware(SimilarHandler{svc}))
	mux.Handle("GET    /recommendations/users/", PersonalizedHandler{svc})
}
