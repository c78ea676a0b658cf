package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/rentlink-backend/internal/api"
	"github.com/eshaffer321/rentlink-backend/internal/api/dto"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	provider := newFakePayman(t).client()
	server := api.NewServer(api.DefaultConfig(), newServices(repo, provider), logging.Discard())
	return server, repo
}

func serve(server *api.Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := serve(server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
}

func TestServer_Routes(t *testing.T) {
	server, _ := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/tenants"},
		{http.MethodGet, "/api/reminders"},
		{http.MethodGet, "/api/reminders/due?date=2026-05-01"},
		{http.MethodGet, "/api/accounts"},
		{http.MethodGet, "/api/matching/runs"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/payments"},
		{http.MethodGet, "/api/payees"},
		{http.MethodGet, "/api/balance"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := serve(server, route.method, route.path, "")
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}

	t.Run("PUT /api/reminders/update accepts an empty batch", func(t *testing.T) {
		rec := serve(server, http.MethodPut, "/api/reminders/update", "[]")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown resources are 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(server, http.MethodGet, "/api/tenants/missing", "").Code)
		assert.Equal(t, http.StatusNotFound, serve(server, http.MethodGet, "/api/transactions/missing/history", "").Code)
		assert.Equal(t, http.StatusNotFound, serve(server, http.MethodGet, "/api/matching/runs/missing", "").Code)
	})
}

func TestServer_OptionalServices(t *testing.T) {
	repo := storage.NewMockRepository()
	services := newServices(repo, newFakePayman(t).client())
	services.Payments = nil
	server := api.NewServer(api.DefaultConfig(), services, nil)

	assert.Equal(t, http.StatusOK, serve(server, http.MethodGet, "/api/tenants", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(server, http.MethodGet, "/api/balance", "").Code)
}

func TestServer_RateLimit(t *testing.T) {
	repo := storage.NewMockRepository()
	cfg := api.DefaultConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	server := api.NewServer(cfg, newServices(repo, newFakePayman(t).client()), logging.Discard())

	assert.Equal(t, http.StatusOK, serve(server, http.MethodGet, "/health", "").Code)

	rec := serve(server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var apiErr dto.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, dto.ErrCodeRateLimited, apiErr.Code)
}

func TestServer_CORS(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("sets CORS headers for allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("handles OPTIONS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/reminders/update", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	})
}
