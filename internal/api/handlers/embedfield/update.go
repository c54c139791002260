package embedfield

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"Embedfield/internal/api/handlers"
	"Embedfield/internal/core/embeds"
	"Embedfield/internal/monitoring"
)

// UpdateHandler implements the interactive URL check the form widget calls
// while the editor types. It resolves the URL and reports thumbnail/title
// data, but never persists anything: persistence happens on save.
type UpdateHandler struct {
	coordinator *embeds.Coordinator
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(coordinator *embeds.Coordinator) *UpdateHandler {
	return &UpdateHandler{coordinator: coordinator}
}

type updateRequest struct {
	URL string `json:"URL"`
}

// updateResponse is the widget contract: status is one of "nourl",
// "invalidurl" or "success"; data carries the preview fields on success.
type updateResponse struct {
	Data    map[string]interface{} `json:"data"`
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
}

// HandleUpdate handles POST /embedfield/update
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	if req.URL == "" {
		h.respond(w, "nourl", "", map[string]interface{}{})
		return
	}

	start := time.Now()
	record, err := h.coordinator.ResolvePreview(r.Context(), req.URL)
	monitoring.ResolveDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		h.respond(w, "success", "", map[string]interface{}{
			"ThumbnailURL": record.ThumbnailURL,
			"Width":        record.Width,
			"Height":       record.Height,
			"Title":        record.Title,
		})
	case embeds.IsNotFound(err):
		h.respond(w, "invalidurl", invalidEmbedSourceMessage(req.URL), map[string]interface{}{})
	default:
		// Transport failure or type restriction; the field keeps its
		// current value, only the message is shown.
		log.Printf("[EMBED] Preview of %s failed: %v", req.URL, err)
		h.respond(w, "invalidurl", invalidSourceTypeMessage(req.URL), map[string]interface{}{})
	}
}

func (h *UpdateHandler) respond(w http.ResponseWriter, status, message string, data map[string]interface{}) {
	monitoring.PreviewsTotal.WithLabelValues(status).Inc()
	handlers.WriteJSON(w, http.StatusOK, updateResponse{
		Status:  status,
		Message: message,
		Data:    data,
	})
}
