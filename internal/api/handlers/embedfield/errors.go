package embedfield

import (
	"fmt"
	"html"
	"net/http"

	"github.com/microcosm-cc/bluemonday"

	"Embedfield/internal/api/handlers"
	"Embedfield/internal/core/embeds"
)

// messagePolicy sanitizes the anchor the user-facing messages build around
// the submitted URL. The URL is untrusted input headed for the admin UI; the
// policy strips anything that is not a plain http(s) link.
var messagePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("a")
	p.AllowAttrs("href", "target").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	return p
}()

// invalidSourceTypeMessage is shown when the fetch failed or the resolved
// type conflicts with the field's type restriction.
func invalidSourceTypeMessage(sourceURL string) string {
	return urlMessage(sourceURL, "is not a valid source type.")
}

// invalidEmbedSourceMessage is shown when the fetch returned nothing usable.
func invalidEmbedSourceMessage(sourceURL string) string {
	return urlMessage(sourceURL, "is not a valid embed source.")
}

func urlMessage(sourceURL, suffix string) string {
	anchor := fmt.Sprintf(`<a href=%q target="_blank">%s</a>`, sourceURL, html.EscapeString(sourceURL))
	return messagePolicy.Sanitize(anchor) + " " + suffix
}

// handleServiceError maps coordinator errors onto HTTP error responses for
// the save endpoint.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case embeds.IsTypeMismatch(err):
		handlers.WriteError(w, http.StatusUnprocessableEntity, "TypeMismatch", err.Error())
	case embeds.IsFetchError(err):
		handlers.WriteError(w, http.StatusBadGateway, "FetchFailed", err.Error())
	case embeds.IsNotFound(err):
		handlers.WriteError(w, http.StatusNotFound, "NotFound", err.Error())
	default:
		handlers.WriteError(w, http.StatusInternalServerError, "InternalError", "An unexpected error occurred")
	}
}
