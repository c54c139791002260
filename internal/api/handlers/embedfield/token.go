package embedfield

import (
	"log"
	"net/http"

	"Embedfield/internal/api/handlers"
	"Embedfield/internal/api/middleware"
)

// TokenHandler issues the anti-forgery token the widget must echo back on
// every mutating call.
type TokenHandler struct {
	csrf *middleware.CSRF
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(csrf *middleware.CSRF) *TokenHandler {
	return &TokenHandler{csrf: csrf}
}

// HandleToken handles GET /embedfield/token
func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.IssueToken(w, r)
	if err != nil {
		log.Printf("[CSRF] Failed to issue token: %v", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalError", "Failed to issue token")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}
