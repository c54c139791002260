package routes

import (
	"github.com/go-chi/chi/v5"

	"Embedfield/internal/api/handlers/embedfield"
	"Embedfield/internal/api/middleware"
	"Embedfield/internal/core/embeds"
)

// RegisterEmbedFieldRoutes registers the form-field endpoints on the router.
// The mutating endpoints sit behind the anti-forgery check; the token and
// record-read endpoints do not.
func RegisterEmbedFieldRoutes(r chi.Router, coordinator *embeds.Coordinator, repo embeds.Repository, csrf *middleware.CSRF) {
	updateHandler := embedfield.NewUpdateHandler(coordinator)
	saveHandler := embedfield.NewSaveHandler(coordinator, repo)
	getHandler := embedfield.NewGetHandler(repo)
	tokenHandler := embedfield.NewTokenHandler(csrf)

	// Token bootstrap for the widget's client-side script
	r.Get("/embedfield/token", tokenHandler.HandleToken)

	// Interactive URL check while the editor types (no persistence)
	r.With(csrf.Protect).Post("/embedfield/update", updateHandler.HandleUpdate)

	// Save of the owning form: create/reuse/replace/clear decision
	r.With(csrf.Protect).Post("/embedfield/save", saveHandler.HandleSave)

	// Record read for front-end rendering
	r.Get("/embedfield/records/{id}", getHandler.HandleGet)
}
