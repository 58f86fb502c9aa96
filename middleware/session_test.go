package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSessionRouter(signer *SessionSigner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionMiddleware(signer, false, zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, SessionID(c))
	})
	return r
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookieName {
			return ck
		}
	}
	t.Fatalf("no %s cookie set", SessionCookieName)
	return nil
}

func TestSessionMiddleware_IssuesNewSession(t *testing.T) {
	signer := NewSessionSigner("test-secret", time.Hour)
	r := newSessionRouter(signer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())

	ck := sessionCookie(t, w)
	assert.True(t, ck.HttpOnly)
	sid, err := signer.Parse(ck.Value)
	require.NoError(t, err)
	assert.Equal(t, w.Body.String(), sid)
	assert.Equal(t, ck.Value, w.Header().Get(SessionHeaderName))
}

func TestSessionMiddleware_ReusesValidCookie(t *testing.T) {
	signer := NewSessionSigner("test-secret", time.Hour)
	r := newSessionRouter(signer)
	token, err := signer.Issue("session-123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "session-123", w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestSessionMiddleware_AcceptsHeader(t *testing.T) {
	signer := NewSessionSigner("test-secret", time.Hour)
	r := newSessionRouter(signer)
	token, err := signer.Issue("from-header")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(SessionHeaderName, token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "from-header", w.Body.String())
}

func TestSessionMiddleware_ReplacesForgedToken(t *testing.T) {
	signer := NewSessionSigner("test-secret", time.Hour)
	r := newSessionRouter(signer)
	forged, err := NewSessionSigner("other-secret", time.Hour).Issue("victim")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: forged})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "victim", w.Body.String())
	assert.NotEmpty(t, sessionCookie(t, w).Value)
}

func TestSessionSigner_RejectsExpired(t *testing.T) {
	signer := NewSessionSigner("test-secret", -time.Minute)
	token, err := signer.Issue("old")
	require.NoError(t, err)

	_, err = signer.Parse(token)
	assert.Error(t, err)
}
