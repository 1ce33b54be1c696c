package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/chart"
	"github.com/gkobilansky/janus-goat/internal/present"
	"github.com/gkobilansky/janus-goat/internal/session"
	"github.com/gkobilansky/janus-goat/internal/validate"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newAnalyzeCmd())
}

type analyzeOptions struct {
	variants    []string
	baseline    string
	exportDir   string
	chartsDir   string
	chartFormat string
	timeout     time.Duration
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an experiment once",
		Long: `Send the given variants to the inference service and print the results.

Each --variant is NAME:IMPRESSIONS:CONVERSIONS:REVENUE. Without any, the
default A/B pair is analyzed.

Examples:
  janus analyze --variant A:1000:100:100 --variant B:1000:120:110 --baseline A
  janus analyze --variant A:1000:100:100 --variant B:1000:120:110 --baseline A --export ./out --charts ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.variants, "variant", nil, "variant as NAME:IMPRESSIONS:CONVERSIONS:REVENUE (repeatable)")
	cmd.Flags().StringVarP(&opts.baseline, "baseline", "b", "", "baseline variant name (defaults to the first variant)")
	cmd.Flags().StringVar(&opts.exportDir, "export", "", "write experiment_results.csv into this directory")
	cmd.Flags().StringVar(&opts.chartsDir, "charts", "", "write density charts into this directory")
	cmd.Flags().StringVar(&opts.chartFormat, "chart-format", chart.FormatPNG, "chart format (png or svg)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "HTTP timeout for the analysis request (0 waits indefinitely)")

	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, opts analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var renderer present.Renderer
	if opts.chartsDir != "" {
		r, err := chart.NewFileRenderer(opts.chartsDir, opts.chartFormat)
		if err != nil {
			return err
		}
		renderer = r
	}

	client := analysis.NewClient(serverURL, &http.Client{Timeout: opts.timeout}, logger)
	s := session.New(client, present.New(renderer, logger), logger)

	if len(opts.variants) == 0 {
		s.Seed()
	}
	for _, v := range opts.variants {
		t, err := parseVariantFlag(v)
		if err != nil {
			return err
		}
		s.AddVariant(t)
	}
	if opts.baseline != "" {
		s.SetBaseline(opts.baseline)
	}

	outcome, err := s.Submit(ctx)
	if err != nil {
		return describeSubmitError(err)
	}

	printView(out, outcome.View, s.Result())

	if opts.chartsDir != "" {
		fmt.Fprintln(out)
		for _, m := range analysis.Metrics {
			if f, ok := s.Chart(m).(*chart.File); ok {
				fmt.Fprintf(out, "Chart: %s\n", f.Path)
			}
		}
	}

	if opts.exportDir != "" {
		path, err := s.Download(opts.exportDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported: %s\n", path)
	}

	return nil
}

// describeSubmitError turns a submit failure into the message shown to the
// user.
func describeSubmitError(err error) error {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return errors.New(verr.Message())
	}
	if errors.Is(err, analysis.ErrAnalysisRequest) {
		return analysis.ErrAnalysisRequest
	}
	return err
}
