package recommend

import (
	"errors"
	"net/http"

	"shop-reco/internal/handler/http/pathutil"
	"shop-reco/internal/handler/http/respond"
	recUC "shop-reco/internal/usecase/recommend"
)

type PersonalizedHandler struct{ Svc *recUC.Service }

// ServeHTTP handles GET /recommendations/users/{id}.
// The gateway in front authenticates the user; the handler trusts the
// path ID. The response always carries a list: when no stored
// recommendations exist the service falls back to history-based or
// latest-products lists.
func (h PersonalizedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/recommendations/users/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.Svc.PersonalizedRecommendations(r.Context(), id, limit)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, recUC.ErrInvalidID) {
			code = http.StatusBadRequest
		} else if errors.Is(err, recUC.ErrUserNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	out := PersonalizedDTO{
		UserID:             id,
		RecommendationType: result.Type,
		BasedOnProductID:   result.BasedOnProductID,
		BasedOnProductName: result.BasedOnProductName,
		Items:              toProductDTOs(result.Items),
	}

	respond.JSON(w, http.StatusOK, out)
}
