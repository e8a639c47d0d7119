package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acvicli/internal/acvi"
	"acvicli/internal/config"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

func testRouter(store *Store) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewResultsHandler(store, logger).RegisterRoutes(r)
	return r
}

func storedCohort() *acvi.CohortResult {
	scores := []acvi.LocationScore{
		{
			LocationID: "UA_A",
			Composite:  70,
			Normalized: acvi.ComponentSet{TemperatureVolatility: 80, PrecipitationVolatility: 70, MoistureStress: 60, ExtremeEvents: 65},
		},
		{
			LocationID: "US_B",
			Composite:  40,
			Normalized: acvi.ComponentSet{TemperatureVolatility: 30, PrecipitationVolatility: 45, MoistureStress: 50, ExtremeEvents: 35},
		},
	}
	acvi.Rank(scores)
	return &acvi.CohortResult{
		RunID:       "api-test",
		GeneratedAt: time.Now().UTC(),
		Weights:     acvi.DefaultWeights(),
		Scores:      scores,
	}
}

func TestGetScoresEmptyStore(t *testing.T) {
	router := testRouter(NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scores", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NO_RESULTS", body["error_code"])
}

func TestGetScores(t *testing.T) {
	store := NewStore()
	store.SetCohort(storedCohort())
	router := testRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scores", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result acvi.CohortResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "api-test", result.RunID)
	require.Len(t, result.Scores, 2)
	assert.Equal(t, "UA_A", result.Scores[0].LocationID)
	assert.Equal(t, 1, result.Scores[0].Rank)
}

func TestReweight(t *testing.T) {
	store := NewStore()
	store.SetCohort(storedCohort())
	router := testRouter(store)

	payload, err := json.Marshal(ReweightRequest{
		Weights: acvi.Weights{ExtremeEvents: 1},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/scores/reweight", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result acvi.CohortResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Scores, 2)
	for _, s := range result.Scores {
		assert.InDelta(t, s.Normalized.ExtremeEvents, s.Composite, 1e-9)
	}

	// The stored cohort keeps its original weights.
	assert.Equal(t, acvi.DefaultWeights(), store.Cohort().Weights)
}

func TestReweightRejectsInvalidWeights(t *testing.T) {
	store := NewStore()
	store.SetCohort(storedCohort())
	router := testRouter(store)

	payload := []byte(`{"weights":{"temperature_volatility":-1}}`)
	req := httptest.NewRequest(http.MethodPost, "/scores/reweight", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_WEIGHTS", body["error_code"])
}

func TestReweightWithoutCohort(t *testing.T) {
	router := testRouter(NewStore())

	payload := []byte(`{"weights":{"extreme_events":1}}`)
	req := httptest.NewRequest(http.MethodPost, "/scores/reweight", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRobustnessAndValidationEmpty(t *testing.T) {
	router := testRouter(NewStore())
	for _, path := range []string{"/robustness", "/validation"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestServerRoutes(t *testing.T) {
	store := NewStore()
	store.SetCohort(storedCohort())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := NewServer(testServerConfig(), store, nil, logger)
	handler := srv.httpServer.Handler

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scores", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
