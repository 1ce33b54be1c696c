// Package session ties the variant registry, validation, the analysis client
// and the presenter into one interactive experiment session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/export"
	"github.com/gkobilansky/janus-goat/internal/present"
	"github.com/gkobilansky/janus-goat/internal/validate"
	"github.com/gkobilansky/janus-goat/internal/variants"
)

// ErrNothingToExport is returned when export is requested before any
// successful analysis.
var ErrNothingToExport = errors.New("no results to export, run an analysis first")

// Outcome describes what a Submit call did.
type Outcome struct {
	// Submitted is false when another analysis was already in flight; the
	// call was skipped and nothing changed.
	Submitted bool
	View      present.View
}

// Session holds one user's experiment input and its latest result. Event
// methods are meant to be called from a single goroutine; only Submit is
// guarded against overlapping calls.
type Session struct {
	registry  *variants.Registry
	baseline  string
	client    analysis.Submitter
	presenter *present.Presenter
	guard     analysis.Guard
	logger    *slog.Logger

	last *present.Context
	view present.View
}

func New(client analysis.Submitter, presenter *present.Presenter, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if presenter == nil {
		presenter = present.New(nil, logger)
	}
	return &Session{
		registry:  variants.NewRegistry(),
		client:    client,
		presenter: presenter,
		logger:    logger,
	}
}

// Seed installs the default variants and baseline.
func (s *Session) Seed() {
	for _, t := range variants.DefaultTemplates() {
		s.addTemplate(t)
	}
}

// AddVariant appends a variant. An empty name takes the next suggested one.
func (s *Session) AddVariant(t variants.Template) string {
	if t.Name == "" {
		t.Name = s.registry.NextSuggestedName()
	}
	return s.addTemplate(t)
}

func (s *Session) addTemplate(t variants.Template) string {
	id := s.registry.AddTemplate(t)
	// The first variant becomes the baseline unless one was chosen already.
	if strings.TrimSpace(s.baseline) == "" && s.registry.Len() == 1 {
		s.baseline = t.Name
	}
	return id
}

func (s *Session) RemoveVariant(id string) error {
	return s.registry.Remove(id)
}

func (s *Session) UpdateVariant(id string, fn func(*variants.Entry)) error {
	return s.registry.Update(id, fn)
}

// FindVariant returns the first entry whose trimmed name is name.
func (s *Session) FindVariant(name string) (variants.Entry, bool) {
	name = strings.TrimSpace(name)
	for _, e := range s.registry.List() {
		if strings.TrimSpace(e.Name) == name {
			return e, true
		}
	}
	return variants.Entry{}, false
}

func (s *Session) Variants() []variants.Entry {
	return s.registry.List()
}

func (s *Session) NextSuggestedName() string {
	return s.registry.NextSuggestedName()
}

func (s *Session) SetBaseline(name string) {
	s.baseline = name
}

func (s *Session) Baseline() string {
	return s.baseline
}

// Validate checks the current input without submitting it.
func (s *Session) Validate() error {
	return validate.Validate(s.baseline, s.registry.List())
}

// CanSubmit reports whether the submit action should be offered.
func (s *Session) CanSubmit() bool {
	return !s.guard.Busy()
}

// Submit validates the input, sends it for analysis and presents the result.
// A call made while another is in flight returns a zero Outcome and no
// error. Validation failures are returned as *validate.Error; any other
// failure wraps analysis.ErrAnalysisRequest. On failure the previous result
// stays in place.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	if !s.guard.TryAcquire() {
		s.logger.Debug("analysis already in flight, submit skipped")
		return Outcome{}, nil
	}
	defer s.guard.Release()

	entries := s.registry.List()
	if err := validate.Validate(s.baseline, entries); err != nil {
		return Outcome{}, err
	}

	req := validate.ToRequest(s.baseline, entries)
	s.logger.Debug("submitting analysis",
		slog.Int("variants", len(req.Variants)),
		slog.String("baseline", req.BaselineVariant))

	result, err := s.client.Submit(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	s.last = &present.Context{Result: result, Baseline: req.BaselineVariant}
	s.view = s.presenter.Present(*s.last)
	return Outcome{Submitted: true, View: s.view}, nil
}

// Result returns the latest analysis result, or nil.
func (s *Session) Result() *analysis.Result {
	if s.last == nil {
		return nil
	}
	return s.last.Result
}

// View returns the latest rendering and whether one exists.
func (s *Session) View() (present.View, bool) {
	return s.view, s.last != nil
}

// Chart returns the live chart of metric m, or nil.
func (s *Session) Chart(m analysis.Metric) present.Drawable {
	return s.presenter.Chart(m)
}

// Export writes the rendered tables of the latest result to w.
func (s *Session) Export(w io.Writer) error {
	if s.last == nil {
		return ErrNothingToExport
	}
	return export.Write(w, s.view.Tables())
}

// Download writes experiment_results.csv into dir and returns its path.
func (s *Session) Download(dir string) (string, error) {
	if s.last == nil {
		return "", ErrNothingToExport
	}
	path, err := export.Download(dir, s.view.Tables())
	if err != nil {
		return "", fmt.Errorf("failed to download results: %w", err)
	}
	return path, nil
}

// Close releases every chart owned by the session's presenter.
func (s *Session) Close() error {
	return s.presenter.Close()
}
