package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/present"
	"github.com/gkobilansky/janus-goat/internal/stats"
)

// credibleLevel is the width of the interval printed next to each metric.
const credibleLevel = 0.95

// printView writes every table of view. Metric tables get a 95% credible
// interval column computed from the posterior samples when there are enough
// of them.
func printView(w io.Writer, view present.View, result *analysis.Result) {
	printTable(w, view.Summary, nil)

	for _, mv := range view.Metrics {
		fmt.Fprintln(w)
		dists := result.DistributionsFor(mv.Metric)
		printTable(w, mv.Table, func(variant string) string {
			samples, ok := dists.Get(variant)
			if !ok {
				return "N/A"
			}
			lo, hi, err := stats.CredibleInterval(samples, credibleLevel)
			if err != nil {
				return "N/A"
			}
			if mv.Metric == analysis.MetricConversion {
				return fmt.Sprintf("[%s, %s]", present.FormatPercent(lo), present.FormatPercent(hi))
			}
			return fmt.Sprintf("[%s, %s]", present.FormatFixed(lo), present.FormatFixed(hi))
		})

		if mv.Best != "" {
			fmt.Fprintf(w, "Best %s: %s\n", strings.ToLower(present.AxisLabel(mv.Metric)), mv.Best)
		}
		if mv.ChartErr != nil {
			fmt.Fprintf(w, "Chart unavailable: %v\n", mv.ChartErr)
		}
	}
}

func printTable(w io.Writer, t present.Table, interval func(variant string) string) {
	fmt.Fprintln(w, strings.ToUpper(t.Title))
	fmt.Fprintln(w, strings.Repeat("─", 60))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := append([]string(nil), t.Headers...)
	if interval != nil {
		headers = append(headers, "95% CI")
	}
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(headers, "\t"))+"\t")

	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Cells)+1)
		for _, c := range row.Cells {
			cells = append(cells, c.Text)
		}
		if interval != nil {
			cells = append(cells, interval(row.Variant))
		}
		fmt.Fprintf(tw, "%s\t%s\n", strings.Join(cells, "\t"), rowMarkers(row))
	}
	tw.Flush()
}

func rowMarkers(row present.Row) string {
	var marks []string
	if row.Baseline {
		marks = append(marks, "BASELINE")
	}
	if row.Best {
		marks = append(marks, "← BEST")
	}
	return strings.Join(marks, " ")
}
