package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionline/api-middleware/internal/auth"
)

func newAuthFixture(t *testing.T) (*AuthHandler, *auth.Service) {
	t.Helper()
	service := auth.NewService("test-secret", time.Hour)
	hash, err := service.HashPassword("platform-pass")
	require.NoError(t, err)
	return NewAuthHandler(service, "visionline", hash), service
}

func TestLogin_Success(t *testing.T) {
	handler, service := newAuthFixture(t)

	body := `{"username": "visionline", "password": "platform-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := service.ValidateToken(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, "visionline", claims.Username)
}

func TestLogin_BadPassword(t *testing.T) {
	handler, _ := newAuthFixture(t)

	body := `{"username": "visionline", "password": "wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	handler, _ := newAuthFixture(t)

	body := `{"username": "intruder", "password": "platform-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	handler, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_MethodNotAllowed(t *testing.T) {
	handler, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
