package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test", Port: "8080"}}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(testConfig())(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	require.Equal(t, "ok", data["status"])
	require.Equal(t, "test", data["env"])
}

func TestHealthReadyAllUp(t *testing.T) {
	handler := HealthReady(testConfig(), testLogger(), stubPinger{}, stubPinger{})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	require.Equal(t, "ok", data["status"])
	checks := data["checks"].(map[string]any)
	require.Equal(t, "ok", checks["database"])
	require.Equal(t, "ok", checks["redis"])
}

func TestHealthReadyDatabaseDown(t *testing.T) {
	handler := HealthReady(testConfig(), testLogger(), stubPinger{err: errors.New("refused")}, stubPinger{})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	data := decodeData(t, rec)
	require.Equal(t, "degraded", data["status"])
	checks := data["checks"].(map[string]any)
	require.Equal(t, "down", checks["database"])
	require.Equal(t, "ok", checks["redis"])
}

func TestHealthReadySkipsUnwiredDependencies(t *testing.T) {
	handler := HealthReady(testConfig(), testLogger(), stubPinger{}, nil)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	checks := decodeData(t, rec)["checks"].(map[string]any)
	require.Equal(t, "skipped", checks["redis"])
}
