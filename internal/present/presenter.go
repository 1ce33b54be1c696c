// Package present builds the tables and chart series shown for an analysis
// result: the overall summary plus one table and one density chart for each
// of conversion, ARPU and revenue per sale.
package present

import (
	"errors"
	"log/slog"

	"github.com/gkobilansky/janus-goat/internal/analysis"
)

// Context is the data a presentation is built from. It is passed explicitly
// and kept only by the session that owns it.
type Context struct {
	Result   *analysis.Result
	Baseline string
}

// MetricView is the rendered output of one ranked metric.
type MetricView struct {
	Metric   analysis.Metric
	Table    Table
	Best     string
	Chart    ChartSpec
	ChartErr error
}

// View is a complete rendering of one result.
type View struct {
	Summary Table
	Metrics []MetricView
}

// Tables returns the four tables in export order: summary, conversion, ARPU,
// revenue per sale.
func (v View) Tables() []Table {
	tables := []Table{v.Summary}
	for _, m := range v.Metrics {
		tables = append(tables, m.Table)
	}
	return tables
}

// Metric returns the view of metric m.
func (v View) Metric(m analysis.Metric) (MetricView, bool) {
	for _, mv := range v.Metrics {
		if mv.Metric == m {
			return mv, true
		}
	}
	return MetricView{}, false
}

// Presenter renders results and owns one chart handle per metric.
type Presenter struct {
	handles map[analysis.Metric]*ChartHandle
	logger  *slog.Logger
}

// New creates a presenter. With a nil renderer chart specs are still built
// but nothing is drawn.
func New(r Renderer, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Presenter{logger: logger}
	if r != nil {
		p.handles = make(map[analysis.Metric]*ChartHandle, len(analysis.Metrics))
		for _, m := range analysis.Metrics {
			p.handles[m] = NewChartHandle(r)
		}
	}
	return p
}

// Present builds every table and chart for ctx. Chart failures are logged
// and recorded on the metric view; they never prevent tables from being
// built.
func (p *Presenter) Present(ctx Context) View {
	view := View{Summary: BuildSummaryTable(ctx)}

	for _, m := range analysis.Metrics {
		table, best := BuildMetricTable(ctx, m)
		mv := MetricView{Metric: m, Table: table, Best: best}

		spec, err := BuildChart(ctx, m)
		if err == nil {
			mv.Chart = spec
			err = p.draw(spec)
		}
		if err != nil {
			p.logger.Error("failed to build chart",
				slog.String("metric", string(m)),
				slog.String("error", err.Error()))
			mv.ChartErr = err
		}

		view.Metrics = append(view.Metrics, mv)
	}

	return view
}

// Chart returns the live drawable of metric m, or nil.
func (p *Presenter) Chart(m analysis.Metric) Drawable {
	h, ok := p.handles[m]
	if !ok {
		return nil
	}
	return h.Current()
}

// Close releases every live chart.
func (p *Presenter) Close() error {
	var errs []error
	for _, m := range analysis.Metrics {
		if h, ok := p.handles[m]; ok {
			if err := h.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Presenter) draw(spec ChartSpec) error {
	h, ok := p.handles[spec.Metric]
	if !ok {
		return nil
	}
	return h.Replace(spec)
}
