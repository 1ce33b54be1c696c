package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/inference"
	"github.com/gkobilansky/janus-goat/internal/server"
	"github.com/gkobilansky/janus-goat/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analyzeBody = `{
  "variants": [
    {"name": "A", "impressions": 1000, "conversions": 100, "revenue": 100},
    {"name": "B", "impressions": 1000, "conversions": 120, "revenue": 110}
  ],
  "baseline_variant": "A"
}`

func setupServer(t *testing.T) (*server.Server, *store.SQLiteStore) {
	t.Helper()

	s, err := store.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := inference.Options{SimCount: 2000, DistributionSize: 200, Seed: 3}
	return server.New(s, 0, opts, logger), s
}

func post(srv *server.Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp server.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestAnalyze_ReturnsResultAndRecordsRun(t *testing.T) {
	srv, s := setupServer(t)

	w := post(srv, analyzeBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result analysis.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	require.Len(t, result.Summary, 2)
	assert.Equal(t, 0.1, result.Summary[0].Conversion)
	assert.Equal(t, []string{"A", "B"}, result.ConversionDistributions.Variants())

	runID := w.Header().Get("X-Run-ID")
	require.NotEmpty(t, runID)
	run, err := s.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusOK, run.Status)
	assert.Equal(t, 2, run.VariantCount)
}

func TestAnalyze_RecordsTrimmedBaseline(t *testing.T) {
	srv, s := setupServer(t)

	body := strings.Replace(analyzeBody, `"baseline_variant": "A"`, `"baseline_variant": " A "`, 1)
	w := post(srv, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	run, err := s.GetRun(context.Background(), w.Header().Get("X-Run-ID"))
	require.NoError(t, err)
	assert.Equal(t, "A", run.Baseline)

	result, err := run.DecodeResult()
	require.NoError(t, err)
	assert.Equal(t, run.Baseline, result.Summary[0].Variant)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	srv, s := setupServer(t)

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"malformed json", `{"variants": [`, "Invalid JSON"},
		{"unknown baseline", strings.Replace(analyzeBody, `"baseline_variant": "A"`, `"baseline_variant": "Z"`, 1), "does not exist"},
		{"too many conversions", strings.Replace(analyzeBody, `"conversions": 120`, `"conversions": 2000`, 1), "Conversions cannot be greater"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp server.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Contains(t, resp.Detail, tt.detail)
		})
	}

	// Only the two decodable requests are recorded, both as failed.
	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, store.StatusFailed, run.Status)
	}
}

func TestRunsAPI(t *testing.T) {
	srv, _ := setupServer(t)
	runID := post(srv, analyzeBody).Header().Get("X-Run-ID")

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var runs []server.RunSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+runID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var detail server.RunDetail
	require.NoError(t, json.NewDecoder(w.Body).Decode(&detail))
	assert.Equal(t, "A", detail.Baseline)
	assert.NotEmpty(t, detail.Response)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetrics(t *testing.T) {
	srv, _ := setupServer(t)
	post(srv, analyzeBody)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `janus_analyses_total{status="ok"} 1`)
	assert.Contains(t, w.Body.String(), "janus_analyze_duration_seconds")
}

func TestClientAgainstServer(t *testing.T) {
	srv, _ := setupServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := analysis.NewClient(ts.URL, ts.Client(), nil)
	req := analysis.Request{
		Variants: []analysis.Variant{
			{Name: "A", Impressions: 1000, Conversions: 100, Revenue: 100},
			{Name: "B", Impressions: 1000, Conversions: 120, Revenue: 110},
		},
		BaselineVariant: "A",
	}

	result, err := client.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.RevenuePerSaleStats, 2)

	req.BaselineVariant = "Z"
	_, err = client.Submit(context.Background(), req)
	assert.ErrorIs(t, err, analysis.ErrAnalysisRequest)
}

func TestNilStore(t *testing.T) {
	srv := server.New(nil, 0, inference.Options{SimCount: 500, DistributionSize: 50}, nil)

	w := post(srv, analyzeBody)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
