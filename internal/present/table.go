package present

import (
	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/stats"
)

// Cell is a formatted table cell.
type Cell struct {
	Text string
	Tag  Tag
}

// Row is one variant's row. Baseline and Best drive highlighting.
type Row struct {
	Variant  string
	Cells    []Cell
	Baseline bool
	Best     bool
}

// Table is a rendered results table.
type Table struct {
	Title   string
	Headers []string
	Rows    []Row
}

// Records returns the header and row texts, one slice per line.
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, append([]string(nil), t.Headers...))
	for _, row := range t.Rows {
		texts := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			texts[i] = c.Text
		}
		records = append(records, texts)
	}
	return records
}

var (
	SummaryHeaders = []string{"Variant", "Impressions", "Conversions", "Revenue", "Conversion Rate", "Avg Ticket", "ARPU"}
	MetricHeaders  = []string{"Variant", "Posterior Mean", "Expected Loss", "Prob. Being Best", "Lift"}
)

const SummaryTitle = "Summary"

// MetricTitle returns the table title of a ranked metric.
func MetricTitle(m analysis.Metric) string {
	switch m {
	case analysis.MetricConversion:
		return "Conversion Statistics"
	case analysis.MetricARPU:
		return "ARPU Statistics"
	case analysis.MetricRevenuePerSale:
		return "Revenue Per Sale Statistics"
	}
	return string(m)
}

// BuildSummaryTable renders the overall summary, one row per summary entry.
func BuildSummaryTable(ctx Context) Table {
	t := Table{Title: SummaryTitle, Headers: SummaryHeaders}
	for _, s := range ctx.Result.Summary {
		t.Rows = append(t.Rows, Row{
			Variant:  s.Variant,
			Baseline: s.Variant == ctx.Baseline,
			Cells: []Cell{
				{Text: s.Variant},
				{Text: FormatCount(s.Impressions)},
				{Text: FormatCount(s.Conversions)},
				{Text: FormatNumber(s.Revenue)},
				{Text: FormatPercent(s.Conversion)},
				{Text: FormatNumber(s.AvgTicket)},
				{Text: FormatNumber(s.ARPU)},
			},
		})
	}
	return t
}

// BuildMetricTable renders the stats of metric m and returns the best
// variant ("" when none can be ranked).
func BuildMetricTable(ctx Context, m analysis.Metric) (Table, string) {
	statList := ctx.Result.Stats(m)
	best, _ := stats.SelectBest(statList)

	t := Table{Title: MetricTitle(m), Headers: MetricHeaders}
	for _, s := range statList {
		mean, _ := ctx.Result.PosteriorMean(m, s)

		var meanText string
		if m == analysis.MetricConversion {
			meanText = FormatPercent(mean)
		} else {
			meanText = FormatFixed(mean)
		}

		probCell := Cell{Text: "N/A", Tag: TagLow}
		if p, ok := s.Prob(); ok {
			probCell = FormatProbability(p)
		}

		t.Rows = append(t.Rows, Row{
			Variant:  s.Variant,
			Baseline: s.Variant == ctx.Baseline,
			Best:     best != "" && s.Variant == best,
			Cells: []Cell{
				{Text: s.Variant},
				{Text: meanText},
				{Text: FormatNumber(s.ExpectedLoss)},
				probCell,
				FormatLift(s.Lift),
			},
		})
	}
	return t, best
}
