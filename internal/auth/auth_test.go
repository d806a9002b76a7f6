package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codearena/codearena-backend/pkg/errors"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("s3cret")
	token, err := m.Issue("42", "alice", time.Hour)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.UserID)
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("s3cret")
	other := NewManager("different")
	foreign, err := other.Issue("1", "alice", time.Hour)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := m.Issue("1", "alice", time.Hour)
	require.NoError(t, err)
	m.now = time.Now

	for name, token := range map[string]string{
		"wrong secret": foreign,
		"expired":      expired,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			assert.True(t, errors.Is(err, errors.TokenInvalid), "got %v", err)
		})
	}

	_, err = m.Verify("")
	assert.True(t, errors.Is(err, errors.Unauthorized))
}

func newRouter(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Middleware(m), func(c *gin.Context) {
		c.String(http.StatusOK, Username(c))
	})
	return r
}

func TestMiddleware(t *testing.T) {
	m := NewManager("s3cret")
	token, err := m.Issue("7", "bob", time.Hour)
	require.NoError(t, err)
	r := newRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareDisabled(t *testing.T) {
	r := newRouter(NewManager(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
