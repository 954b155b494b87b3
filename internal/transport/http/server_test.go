package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chorus/internal/orchestrator"
	"chorus/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	lastReq orchestrator.Request
	summary orchestrator.Summary
}

func (f *fakeRunner) Run(_ context.Context, req orchestrator.Request) orchestrator.Summary {
	f.lastReq = req
	return f.summary
}

type fakeModels struct{ ids []string }

func (f fakeModels) IDs() []string { return f.ids }

func newTestServer(t *testing.T, runner Runner, tracker StatsSource) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Addr:       ":0",
		Runner:     runner,
		Models:     fakeModels{ids: []string{"alpha", "beta"}},
		Stats:      tracker,
		MaxTimeout: 2 * time.Minute,
	})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, stats.NewTracker())
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestOrchestrateEndpoint(t *testing.T) {
	runner := &fakeRunner{summary: orchestrator.Summary{
		RunID:          "r1",
		OverallSuccess: true,
		TotalModels:    2,
		SuccessCount:   1,
		FailureCount:   1,
	}}
	tracker := stats.NewTracker()
	srv := newTestServer(t, runner, tracker)

	rec := doJSON(t, srv, http.MethodPost, "/v1/orchestrate", map[string]any{
		"prompt":    "explain quicksort",
		"models":    []string{"alpha", "beta"},
		"timeoutMs": 5000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got orchestrator.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "r1", got.RunID)
	assert.True(t, got.OverallSuccess)

	assert.Equal(t, []string{"alpha", "beta"}, runner.lastReq.Models)
	assert.Equal(t, 5*time.Second, runner.lastReq.Timeout)
	assert.Equal(t, -1, runner.lastReq.MaxRetries, "absent maxRetries maps to configured default")

	snap := tracker.Snapshot()
	assert.Equal(t, int64(1), snap.Runs)
}

func TestOrchestrateExplicitZeroRetries(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(t, runner, stats.NewTracker())
	zero := 0
	rec := doJSON(t, srv, http.MethodPost, "/v1/orchestrate", map[string]any{
		"prompt":     "p",
		"models":     []string{"alpha"},
		"maxRetries": zero,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, runner.lastReq.MaxRetries)
}

func TestOrchestrateValidation(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{"empty prompt", map[string]any{"prompt": " ", "models": []string{"a"}}, "prompt"},
		{"no models", map[string]any{"prompt": "p", "models": []string{}}, "models"},
		{"negative retries", map[string]any{"prompt": "p", "models": []string{"a"}, "maxRetries": -2}, "maxRetries"},
		{"timeout above cap", map[string]any{"prompt": "p", "models": []string{"a"}, "timeoutMs": 600000}, "maximum"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeRunner{}, stats.NewTracker())
			rec := doJSON(t, srv, http.MethodPost, "/v1/orchestrate", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestModelsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, stats.NewTracker())
	rec := doJSON(t, srv, http.MethodGet, "/v1/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alpha")
	assert.Contains(t, rec.Body.String(), "beta")
}

func TestStatsEndpoint(t *testing.T) {
	tracker := stats.NewTracker()
	tracker.RecordRun(orchestrator.Summary{OverallSuccess: true, SuccessCount: 1, TotalModels: 1})
	srv := newTestServer(t, &fakeRunner{}, tracker)

	rec := doJSON(t, srv, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap stats.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.Runs)
}

func TestNewServerRequiresRunner(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}
