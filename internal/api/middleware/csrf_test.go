package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

// issueToken runs a token request and returns the minted token plus the
// session cookies the client would carry on the next request.
func issueToken(t *testing.T, csrf *CSRF) (string, []*http.Cookie) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/embedfield/token", nil)
	rr := httptest.NewRecorder()

	token, err := csrf.IssueToken(rr, req)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	return token, rr.Result().Cookies()
}

func protectedHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.Write([]byte("ok"))
	})
}

func TestCSRF_ValidTokenPassesThrough(t *testing.T) {
	csrf := NewCSRF(testSessionSecret)
	token, cookies := issueToken(t, csrf)

	var called bool
	handler := csrf.Protect(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/embedfield/save", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	req.Header.Set(CSRFTokenHeader, token)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestCSRF_MissingTokenYieldsEmptyOK(t *testing.T) {
	csrf := NewCSRF(testSessionSecret)
	_, cookies := issueToken(t, csrf)

	var called bool
	handler := csrf.Protect(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/embedfield/save", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestCSRF_WrongTokenYieldsEmptyOK(t *testing.T) {
	csrf := NewCSRF(testSessionSecret)
	_, cookies := issueToken(t, csrf)

	var called bool
	handler := csrf.Protect(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/embedfield/save", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	req.Header.Set(CSRFTokenHeader, "not-the-token")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.False(t, called)
	assert.Empty(t, rr.Body.String())
}

func TestCSRF_NoSessionYieldsEmptyOK(t *testing.T) {
	csrf := NewCSRF(testSessionSecret)

	var called bool
	handler := csrf.Protect(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/embedfield/save", nil)
	req.Header.Set(CSRFTokenHeader, "whatever")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestCSRF_TokenIsStablePerSession(t *testing.T) {
	csrf := NewCSRF(testSessionSecret)
	token, cookies := issueToken(t, csrf)

	req := httptest.NewRequest(http.MethodGet, "/embedfield/token", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()

	again, err := csrf.IssueToken(rr, req)
	require.NoError(t, err)
	assert.Equal(t, token, again)
}
