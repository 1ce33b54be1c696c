package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/inference"
	"github.com/gkobilansky/janus-goat/internal/stats"
	"github.com/gkobilansky/janus-goat/internal/store"
	"github.com/gkobilansky/janus-goat/internal/validate"
)

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RunSummary is one entry of GET /api/runs.
type RunSummary struct {
	ID           string `json:"id"`
	Baseline     string `json:"baseline"`
	VariantCount int    `json:"variant_count"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
	CreatedAt    int64  `json:"created_at"`
}

// RunDetail is the body of GET /api/runs/{id}.
type RunDetail struct {
	RunSummary
	Request  json.RawMessage `json:"request"`
	Response json.RawMessage `json:"response,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.analyses.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	s.logger.Info("analysis requested",
		slog.Int("variants", len(req.Variants)),
		slog.String("baseline", req.BaselineVariant))
	s.metrics.variants.Observe(float64(len(req.Variants)))

	start := time.Now()
	result, err := inference.Analyze(req, s.options)
	elapsed := time.Since(start)

	run := &store.Run{
		Baseline:     strings.TrimSpace(req.BaselineVariant),
		VariantCount: len(req.Variants),
		Duration:     elapsed,
	}
	run.Request, _ = json.Marshal(req)

	if err != nil {
		detail := "Error in experiment analysis: " + err.Error()
		var verr *validate.Error
		if errors.As(err, &verr) {
			s.metrics.analyses.WithLabelValues("invalid").Inc()
		} else {
			s.metrics.analyses.WithLabelValues("failed").Inc()
		}
		s.logger.Error("analysis failed", slog.String("error", err.Error()))

		run.Status = store.StatusFailed
		run.Error = err.Error()
		s.recordRun(r, run)

		writeError(w, http.StatusBadRequest, detail)
		return
	}

	s.metrics.analyzeDuration.Observe(elapsed.Seconds())
	s.metrics.analyses.WithLabelValues("ok").Inc()

	body, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode result")
		return
	}
	run.Status = store.StatusOK
	run.Response = body
	s.recordRun(r, run)

	s.logger.Info("analysis completed",
		slog.String("run_id", run.ID),
		slog.Duration("duration", elapsed),
		slog.Any("best", stats.BestByMetric(result)))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Run-ID", run.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch runs")
		return
	}

	out := make([]RunSummary, len(runs))
	for i, run := range runs {
		out[i] = summarizeRun(run)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err == store.ErrNotFound {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch run")
		return
	}

	writeJSON(w, http.StatusOK, RunDetail{
		RunSummary: summarizeRun(run),
		Request:    run.Request,
		Response:   run.Response,
	})
}

// recordRun stores run; failures are logged and never reach the caller.
func (s *Server) recordRun(r *http.Request, run *store.Run) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordRun(r.Context(), run); err != nil {
		s.metrics.storeErrors.Inc()
		s.logger.Error("failed to record run", slog.String("error", err.Error()))
	}
}

func summarizeRun(run *store.Run) RunSummary {
	return RunSummary{
		ID:           run.ID,
		Baseline:     run.Baseline,
		VariantCount: run.VariantCount,
		Status:       string(run.Status),
		Error:        run.Error,
		DurationMS:   run.Duration.Milliseconds(),
		CreatedAt:    run.CreatedAt.Unix(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
