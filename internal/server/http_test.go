package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gokatarajesh/talentquiz/internal/auth/jwt"
	"github.com/gokatarajesh/talentquiz/internal/catalog"
	"github.com/gokatarajesh/talentquiz/internal/config"
	"github.com/gokatarajesh/talentquiz/internal/logging"
	"github.com/gokatarajesh/talentquiz/internal/metrics"
	"github.com/gokatarajesh/talentquiz/internal/store"
)

func testConfig() *config.App {
	return &config.App{
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         60,
		},
	}
}

func newTestHandler(deps map[string]Pinger) http.Handler {
	return newLoggingTestHandler(zerolog.Nop(), deps)
}

func newLoggingTestHandler(logger zerolog.Logger, deps map[string]Pinger) http.Handler {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	return NewHandler(testConfig(), logger, Handlers{
		Tokens:       jwt.NewManager(jwt.TokenConfig{AccessSecret: []byte("test-secret")}),
		Catalog:      catalog.NewHTTPHandlers(catalog.NewService(store.NewMemoryStore(), zerolog.Nop()), zerolog.Nop()),
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Dependencies: deps,
	})
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestHandler(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(logging.RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "talentquiz_attempts_active")
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	h := newTestHandler(map[string]Pinger{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream_error")
}

func TestReadyzLogsWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := newLoggingTestHandler(zerolog.New(&buf), map[string]Pinger{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	req.Header.Set(logging.RequestIDHeader, "ready-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, buf.String(), `"dependency":"postgres"`)
	assert.Contains(t, buf.String(), `"request_id":"ready-1"`)
	assert.Contains(t, buf.String(), "dependency ping failed")
}

func TestReadyzWithoutDependencies(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestRoutesRequireAuthentication(t *testing.T) {
	h := newTestHandler(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tests", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/tests", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/tests", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
