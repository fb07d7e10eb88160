package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mintSessionCookie builds a request carrying a session cookie signed by the
// given store.
func mintSessionCookie(t *testing.T, store *sessions.CookieStore, target string, values map[any]any) *http.Request {
	t.Helper()

	seed := httptest.NewRequest(http.MethodGet, target, nil)
	session, err := store.Get(seed, sessionName)
	require.NoError(t, err)
	for k, v := range values {
		session.Values[k] = v
	}
	rec := httptest.NewRecorder()
	require.NoError(t, session.Save(seed, rec))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionSecretFromEnvironmentSignsCookies(t *testing.T) {
	t.Setenv("SESSION_SECRET", "rotated-production-secret")
	InitSessionStore()

	signer := sessions.NewCookieStore([]byte("rotated-production-secret"))
	req := mintSessionCookie(t, signer, "/api/admin/users", map[any]any{
		"user_id": 1,
		"role":    "admin",
	})

	called := false
	w := httptest.NewRecorder()
	AuthMiddleware(AdminMiddleware(func(http.ResponseWriter, *http.Request) {
		called = true
	}))(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestFallbackSignedCookieRejectedWhenSecretConfigured(t *testing.T) {
	t.Setenv("SESSION_SECRET", "rotated-production-secret")
	InitSessionStore()

	// A cookie minted against the publicly-known development fallback must
	// not authenticate once a real secret is configured.
	forger := sessions.NewCookieStore([]byte("secret-key-change-in-production"))
	req := mintSessionCookie(t, forger, "/api/admin/users", map[any]any{
		"user_id": 1,
		"role":    "admin",
	})

	called := false
	w := httptest.NewRecorder()
	AuthMiddleware(AdminMiddleware(func(http.ResponseWriter, *http.Request) {
		called = true
	}))(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

// plainResponseWriter hides the recorder's Flush, modeling a middleware
// wrapper that does not implement http.Flusher.
type plainResponseWriter struct {
	http.ResponseWriter
}

func TestSSEHandlerWithoutFlusherFailsCleanly(t *testing.T) {
	InitSessionStore()
	h, _ := newEventTestHandler(t)

	req := mintSessionCookie(t, getSessionStore(), "/api/events/stream", map[any]any{
		"user_id": 1,
	})

	rec := httptest.NewRecorder()
	h.SSEHandler(&plainResponseWriter{rec}, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
