package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	csrfSessionName = "embedfield_csrf"
	csrfTokenKey    = "token"

	// CSRFTokenHeader carries the anti-forgery token on mutating requests.
	CSRFTokenHeader = "X-CSRF-Token"
)

// CSRF implements the anti-forgery check for the form-field endpoints.
// Tokens are held in an encrypted session cookie; a mutating request must
// echo the token back in the X-CSRF-Token header. A request with a missing or
// stale token gets an intentionally empty 200 response and no processing at
// all, which the admin-UI widget treats as "re-fetch the token and retry".
type CSRF struct {
	store sessions.Store
}

// NewCSRF creates the anti-forgery guard backed by a cookie session store.
func NewCSRF(secret string) *CSRF {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &CSRF{store: store}
}

// IssueToken returns the session's anti-forgery token, minting one on first
// use and persisting it in the session cookie.
func (c *CSRF) IssueToken(w http.ResponseWriter, r *http.Request) (string, error) {
	session, err := c.store.Get(r, csrfSessionName)
	if err != nil {
		// A corrupt or re-keyed cookie is recoverable: start a fresh session.
		session, err = c.store.New(r, csrfSessionName)
		if err != nil {
			return "", fmt.Errorf("failed to create csrf session: %w", err)
		}
	}

	if token, ok := session.Values[csrfTokenKey].(string); ok && token != "" {
		return token, nil
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}
	session.Values[csrfTokenKey] = token
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save csrf session: %w", err)
	}

	return token, nil
}

// Protect wraps mutating handlers with the token check.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.validRequest(r) {
			log.Printf("[CSRF] Rejected %s %s from %s", r.Method, r.URL.Path, clientIP(r))
			// Contract with the widget: empty body, nothing happened.
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *CSRF) validRequest(r *http.Request) bool {
	session, err := c.store.Get(r, csrfSessionName)
	if err != nil {
		return false
	}
	expected, ok := session.Values[csrfTokenKey].(string)
	if !ok || expected == "" {
		return false
	}
	supplied := r.Header.Get(CSRFTokenHeader)
	if supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
