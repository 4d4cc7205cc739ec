package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
	"taskflow/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(auth services.AuthService, m *Metrics) *gin.Engine {
	r := gin.New()
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", m.Handler())
	}
	r.Use(AuthMiddleware(auth))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/private", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet(CtxUserID)})
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	auth := services.NewAuthService("k", time.Hour)
	r := newRouter(auth, nil)

	w := do(r, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, w.Body.String())
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = do(r, "/private", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, w.Body.String())

	tok, err := auth.IssueToken(&models.User{ID: 7, Username: "alice"})
	require.NoError(t, err)
	w = do(r, "/private", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	r := newRouter(services.NewAuthService("k", time.Hour), m)

	do(r, "/health", "")
	do(r, "/private", "")

	w := do(r, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `taskflow_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, string(body), `taskflow_http_requests_total{method="GET",route="/private",status="401"} 1`)
}
