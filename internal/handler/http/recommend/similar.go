package recommend

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shop-reco/internal/handler/http/pathutil"
	"shop-reco/internal/handler/http/respond"
	recUC "shop-reco/internal/usecase/recommend"
)

const similarSuffix = "/similar"

type SimilarHandler struct{ Svc *recUC.Service }

// ServeHTTP handles GET /recommendations/products/{id}/similar.
// The target product must exist and be active; a product with no
// stored similarities returns an empty items list with 200.
func (h SimilarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimSuffix(r.URL.Path, similarSuffix)
	if trimmed == r.URL.Path {
		respond.SafeError(w, http.StatusNotFound, errors.New("not found"))
		return
	}

	id, err := pathutil.ExtractID(trimmed, "/recommendations/products/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.Svc.SimilarProducts(r.Context(), id, limit)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, recUC.ErrInvalidID) {
			code = http.StatusBadRequest
		} else if errors.Is(err, recUC.ErrProductNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	out := SimilarDTO{
		ProductID:   result.Product.ID,
		ProductName: result.Product.Name,
		Items:       toProductDTOs(result.Items),
	}

	respond.JSON(w, http.StatusOK, out)
}

// parseLimit reads the optional limit query parameter. Zero means
// "unset" and lets the service apply its default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q: must be a non-negative integer", raw)
	}
	return limit, nil
}
