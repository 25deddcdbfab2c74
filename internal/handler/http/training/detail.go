package training

import (
	"errors"
	"net/http"

	"shop-reco/internal/handler/http/pathutil"
	"shop-reco/internal/handler/http/respond"
	recUC "shop-reco/internal/usecase/recommend"
)

type DetailHandler struct{ Svc *recUC.Service }

// ServeHTTP handles GET /admin/recommendations/training-history/{id}.
func (h DetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/admin/recommendations/training-history/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	job, err := h.Svc.TrainingJobDetail(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, recUC.ErrInvalidID) {
			code = http.StatusBadRequest
		} else if errors.Is(err, recUC.ErrJobNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	respond.JSON(w, http.StatusOK, toJobDTO(job))
}
