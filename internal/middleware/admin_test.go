package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAdminRouter(t *testing.T, hash string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	am := NewAdminMiddleware(hash)
	router := gin.New()
	router.DELETE("/api/v1/exoplanets/cache", am.RequireAdminAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
	})
	return router
}

func TestHashAdminKey(t *testing.T) {
	hash, err := HashAdminKey("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	am := NewAdminMiddleware(hash)
	assert.True(t, am.ValidateAdminKey("s3cret"))
	assert.False(t, am.ValidateAdminKey("wrong"))
	assert.False(t, am.ValidateAdminKey(""))
}

func TestAdminMiddleware_RequireAdminAuth(t *testing.T) {
	hash, err := HashAdminKey("test-admin-key", bcrypt.MinCost)
	require.NoError(t, err)
	router := newAdminRouter(t, hash)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer test-admin-key") }, http.StatusOK},
		{"x-api-key header", func(r *http.Request) { r.Header.Set("X-API-Key", "test-admin-key") }, http.StatusOK},
		{"query parameter", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("api_key", "test-admin-key")
			r.URL.RawQuery = q.Encode()
		}, http.StatusOK},
		{"wrong bearer falls through to header", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer wrong")
			r.Header.Set("X-API-Key", "test-admin-key")
		}, http.StatusOK},
		{"wrong key", func(r *http.Request) { r.Header.Set("X-API-Key", "wrong") }, http.StatusUnauthorized},
		{"no key", func(r *http.Request) {}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/exoplanets/cache", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), "Valid admin API key required")
			}
		})
	}
}

func TestAdminMiddleware_Disabled(t *testing.T) {
	router := newAdminRouter(t, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/exoplanets/cache", nil)
	req.Header.Set("X-API-Key", "anything")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Admin API disabled")
}
