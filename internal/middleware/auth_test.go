package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/visionline/api-middleware/internal/auth"
)

func newProtected(t *testing.T) (*auth.Service, http.Handler) {
	t.Helper()
	service := auth.NewService("test-secret", time.Hour)
	m := NewAuthMiddleware(service)
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetUserFromContext(r.Context())
		assert.True(t, ok)
		assert.NotEmpty(t, claims.Username)
		w.WriteHeader(http.StatusOK)
	}))
	return service, handler
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	_, handler := newProtected(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/gps", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	_, handler := newProtected(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook/gps", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	service, handler := newProtected(t)

	token, err := service.GenerateToken("visionline")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook/gps", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_SkipPaths(t *testing.T) {
	service := auth.NewService("test-secret", time.Hour)
	m := NewAuthMiddleware(service)
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/", "/health", "/metrics", "/api/auth/login"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "path %s should skip auth", path)
	}
}
