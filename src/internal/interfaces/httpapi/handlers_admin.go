package httpapi

import (
	"net/http"
	"strconv"

	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.services.Browser.Resources())
}

func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	page, err := h.services.Browser.List(r.Context(), persistence.Resource(chi.URLParam(r, "resource")), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, page)
}
