package training

import (
	"errors"
	"net/http"

	"shop-reco/internal/handler/http/respond"
	recUC "shop-reco/internal/usecase/recommend"
	trainUC "shop-reco/internal/usecase/training"
)

// adminIDHeader carries the admin identity set by the gateway after it
// has authenticated the request.
const adminIDHeader = "X-Admin-ID"

type TriggerHandler struct{ Svc *recUC.Service }

// ServeHTTP handles POST /admin/recommendations/train. The pipeline
// runs synchronously; the response describes the finished job. A run
// refused because another one holds the training lock maps to 409, a
// run that started and failed maps to 200 with status FAILED.
func (h TriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	adminID := r.Header.Get(adminIDHeader)

	res, err := h.Svc.TriggerTraining(r.Context(), adminID)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, recUC.ErrInvalidID) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}

	code := http.StatusOK
	if errors.Is(res.Err, trainUC.ErrTrainingInProgress) {
		code = http.StatusConflict
	}

	respond.JSON(w, code, toTriggerDTO(res))
}
