package embedfield

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Embedfield/internal/api/handlers"
	"Embedfield/internal/core/embeds"
)

// GetHandler serves persisted records so the front end can render an embed
// without re-fetching provider metadata on every page view.
type GetHandler struct {
	repo embeds.Repository
}

// NewGetHandler creates a new get handler
func NewGetHandler(repo embeds.Repository) *GetHandler {
	return &GetHandler{repo: repo}
}

// HandleGet handles GET /embedfield/records/{id}
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "id must be a positive integer")
		return
	}

	record, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, embeds.ErrRecordNotFound) {
			handlers.WriteError(w, http.StatusNotFound, "NotFound", "embed record not found")
			return
		}
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, record)
}
