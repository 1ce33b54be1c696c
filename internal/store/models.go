package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gkobilansky/janus-goat/internal/analysis"
)

type RunStatus string

const (
	StatusOK     RunStatus = "ok"
	StatusFailed RunStatus = "failed"
)

// Run is one POST /api/analyze call handled by the inference service.
type Run struct {
	ID           string
	Baseline     string
	VariantCount int
	Status       RunStatus
	Error        string // set for failed runs
	Duration     time.Duration
	Request      json.RawMessage
	Response     json.RawMessage // empty for failed runs
	CreatedAt    time.Time
}

// DecodeRequest unmarshals the stored request.
func (r *Run) DecodeRequest() (*analysis.Request, error) {
	var req analysis.Request
	if err := json.Unmarshal(r.Request, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request of run %s: %w", r.ID, err)
	}
	return &req, nil
}

// DecodeResult unmarshals the stored response. Failed runs have none.
func (r *Run) DecodeResult() (*analysis.Result, error) {
	if len(r.Response) == 0 {
		return nil, fmt.Errorf("run %s has no result", r.ID)
	}
	var result analysis.Result
	if err := json.Unmarshal(r.Response, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result of run %s: %w", r.ID, err)
	}
	return &result, nil
}

// runRow mirrors the runs table.
type runRow struct {
	ID           string `db:"id"`
	Baseline     string `db:"baseline"`
	VariantCount int    `db:"variant_count"`
	Status       string `db:"status"`
	Error        string `db:"error"`
	DurationMS   int64  `db:"duration_ms"`
	Request      string `db:"request"`
	Response     string `db:"response"`
	CreatedAt    int64  `db:"created_at"`
}

func (r runRow) toRun() *Run {
	run := &Run{
		ID:           r.ID,
		Baseline:     r.Baseline,
		VariantCount: r.VariantCount,
		Status:       RunStatus(r.Status),
		Error:        r.Error,
		Duration:     time.Duration(r.DurationMS) * time.Millisecond,
		Request:      json.RawMessage(r.Request),
		CreatedAt:    time.Unix(r.CreatedAt, 0),
	}
	if r.Response != "" {
		run.Response = json.RawMessage(r.Response)
	}
	return run
}
