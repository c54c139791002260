package embedfield

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"Embedfield/internal/api/handlers"
	"Embedfield/internal/core/embeds"
	"Embedfield/internal/monitoring"
)

// SaveHandler drives the dedup/lifecycle coordinator when the owning form is
// saved. The response carries the record identity the owner should reference
// (0 after a clear); the CMS updates its own reference column with it.
type SaveHandler struct {
	coordinator *embeds.Coordinator
	repo        embeds.Repository
}

// NewSaveHandler creates a new save handler
func NewSaveHandler(coordinator *embeds.Coordinator, repo embeds.Repository) *SaveHandler {
	return &SaveHandler{coordinator: coordinator, repo: repo}
}

type saveRequest struct {
	SourceURL string `json:"sourceurl"`
	Current   int64  `json:"current"`
}

type saveResponse struct {
	Outcome   string `json:"outcome"`
	Reference int64  `json:"reference"`
	DeletedID int64  `json:"deletedId,omitempty"`
}

// HandleSave handles POST /embedfield/save
func (h *SaveHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	// The owner's current reference may be stale (record already gone);
	// treat a miss as "no existing record" rather than failing the save.
	var existing *embeds.EmbedRecord
	if req.Current != 0 {
		record, err := h.repo.GetByID(r.Context(), req.Current)
		if err != nil && !errors.Is(err, embeds.ErrRecordNotFound) {
			monitoring.SavesTotal.WithLabelValues("failed").Inc()
			handleServiceError(w, err)
			return
		}
		existing = record
	}

	result, err := h.coordinator.ResolveForSave(r.Context(), existing, req.SourceURL)
	if err != nil {
		log.Printf("[EMBED] Save of %q failed: %v", req.SourceURL, err)
		monitoring.SavesTotal.WithLabelValues("failed").Inc()
		handleServiceError(w, err)
		return
	}

	monitoring.SavesTotal.WithLabelValues(result.Outcome.String()).Inc()

	resp := saveResponse{
		Outcome:   result.Outcome.String(),
		DeletedID: result.DeletedID,
	}
	if result.Record != nil {
		resp.Reference = result.Record.ID
	}

	handlers.WriteJSON(w, http.StatusOK, resp)
}
