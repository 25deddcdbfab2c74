package training

import (
	"fmt"
	"net/http"
	"strconv"

	"shop-reco/internal/handler/http/respond"
	recUC "shop-reco/internal/usecase/recommend"
)

type HistoryHandler struct{ Svc *recUC.Service }

// ServeHTTP handles GET /admin/recommendations/training-history.
// Records come back newest first.
func (h HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respond.SafeError(w, http.StatusBadRequest,
				fmt.Errorf("invalid limit %q: must be a non-negative integer", raw))
			return
		}
		limit = parsed
	}

	jobs, err := h.Svc.TrainingHistory(r.Context(), limit)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]JobDTO, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobDTO(job))
	}

	respond.JSON(w, http.StatusOK, out)
}
