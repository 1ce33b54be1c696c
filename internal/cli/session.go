package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/chart"
	"github.com/gkobilansky/janus-goat/internal/present"
	"github.com/gkobilansky/janus-goat/internal/session"
	"github.com/gkobilansky/janus-goat/internal/validate"
	"github.com/gkobilansky/janus-goat/internal/variants"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	sessionChartsDir   string
	sessionChartFormat string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start an interactive analysis session",
	Long: `Edit variants, pick a baseline and analyze interactively.

The session starts with the default A/B pair. Results can be analyzed as
often as needed and exported to experiment_results.csv.

Example:
  janus session --charts ./charts`,
	RunE: runSession,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, sessionCmd} {
		cmd.Flags().StringVar(&sessionChartsDir, "charts", "", "write density charts into this directory after each analysis")
		cmd.Flags().StringVar(&sessionChartFormat, "chart-format", chart.FormatPNG, "chart format (png or svg)")
	}
	rootCmd.AddCommand(sessionCmd)
}

const (
	actionAdd      = "Add variant"
	actionEdit     = "Edit variant"
	actionRemove   = "Remove variant"
	actionBaseline = "Set baseline"
	actionAnalyze  = "Analyze"
	actionExport   = "Export results"
	actionQuit     = "Quit"
)

func runSession(cmd *cobra.Command, args []string) error {
	var renderer present.Renderer
	if sessionChartsDir != "" {
		r, err := chart.NewFileRenderer(sessionChartsDir, sessionChartFormat)
		if err != nil {
			return err
		}
		renderer = r
	}

	client := analysis.NewClient(serverURL, nil, logger)
	s := session.New(client, present.New(renderer, logger), logger)
	s.Seed()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		fmt.Fprintln(out)
		printVariants(out, s)
		fmt.Fprintln(out)

		action, err := promptAction(s)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		if action == actionQuit {
			return nil
		}
		if err := handleAction(ctx, out, s, action); err != nil {
			if errors.Is(err, promptui.ErrInterrupt) {
				continue
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func promptAction(s *session.Session) (string, error) {
	items := []string{actionAdd, actionEdit, actionRemove, actionBaseline}
	// Analyze is only offered while no analysis is in flight.
	if s.CanSubmit() {
		items = append(items, actionAnalyze)
	}
	if _, ok := s.View(); ok {
		items = append(items, actionExport)
	}
	items = append(items, actionQuit)

	prompt := promptui.Select{
		Label: "Action",
		Items: items,
		Size:  len(items),
	}
	_, action, err := prompt.Run()
	return action, err
}

func handleAction(ctx context.Context, out io.Writer, s *session.Session, action string) error {
	switch action {
	case actionAdd:
		t, err := promptTemplate(variants.Template{Name: s.NextSuggestedName()})
		if err != nil {
			return err
		}
		s.AddVariant(t)

	case actionEdit:
		e, err := selectVariant(s, "Variant to edit")
		if err != nil {
			return err
		}
		t, err := promptTemplate(variants.Template{
			Name:        e.Name,
			Impressions: e.Impressions,
			Conversions: e.Conversions,
			Revenue:     e.Revenue,
		})
		if err != nil {
			return err
		}
		return s.UpdateVariant(e.ID, func(v *variants.Entry) {
			v.Name = t.Name
			v.Impressions = t.Impressions
			v.Conversions = t.Conversions
			v.Revenue = t.Revenue
		})

	case actionRemove:
		e, err := selectVariant(s, "Variant to remove")
		if err != nil {
			return err
		}
		return s.RemoveVariant(e.ID)

	case actionBaseline:
		prompt := promptui.Prompt{Label: "Baseline variant", Default: s.Baseline(), AllowEdit: true}
		name, err := prompt.Run()
		if err != nil {
			return err
		}
		s.SetBaseline(name)

	case actionAnalyze:
		fmt.Fprintln(out, "Analyzing...")
		outcome, err := s.Submit(ctx)
		if err != nil {
			return describeSubmitError(err)
		}
		if !outcome.Submitted {
			return nil
		}
		fmt.Fprintln(out)
		printView(out, outcome.View, s.Result())

	case actionExport:
		prompt := promptui.Prompt{Label: "Export directory", Default: ".", AllowEdit: true}
		dir, err := prompt.Run()
		if err != nil {
			return err
		}
		path, err := s.Download(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported: %s\n", path)
	}
	return nil
}

func selectVariant(s *session.Session, label string) (variants.Entry, error) {
	entries := s.Variants()
	if len(entries) == 0 {
		return variants.Entry{}, errors.New("no variants yet")
	}

	items := make([]string, len(entries))
	for i, e := range entries {
		items[i] = fmt.Sprintf("#%d %s", e.Ordinal, e.Name)
	}
	prompt := promptui.Select{Label: label, Items: items, Size: len(items)}
	idx, _, err := prompt.Run()
	if err != nil {
		return variants.Entry{}, err
	}
	return entries[idx], nil
}

func promptTemplate(defaults variants.Template) (variants.Template, error) {
	name, err := (&promptui.Prompt{Label: "Name", Default: defaults.Name, AllowEdit: true}).Run()
	if err != nil {
		return variants.Template{}, err
	}
	impressions, err := promptInt("Impressions", defaults.Impressions)
	if err != nil {
		return variants.Template{}, err
	}
	conversions, err := promptInt("Conversions", defaults.Conversions)
	if err != nil {
		return variants.Template{}, err
	}
	revenue, err := promptFloat("Revenue", defaults.Revenue)
	if err != nil {
		return variants.Template{}, err
	}
	return variants.Template{Name: name, Impressions: impressions, Conversions: conversions, Revenue: revenue}, nil
}

func promptInt(label string, def int) (int, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   strconv.Itoa(def),
		AllowEdit: true,
		Validate: func(s string) error {
			_, err := strconv.Atoi(strings.TrimSpace(s))
			return err
		},
	}
	v, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(v))
}

func promptFloat(label string, def float64) (float64, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   present.FormatNumber(def),
		AllowEdit: true,
		Validate: func(s string) error {
			_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			return err
		},
	}
	v, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

// printVariants shows the current input, with fields the validator would
// reject marked by "!".
func printVariants(w io.Writer, s *session.Session) {
	flagged := func(string, string) bool { return false }
	if err := s.Validate(); err != nil {
		fmt.Fprintf(w, "! %v\n\n", err)
		var verr *validate.Error
		if errors.As(err, &verr) {
			flagged = verr.Flagged
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tIMPRESSIONS\tCONVERSIONS\tREVENUE\t")
	for _, e := range s.Variants() {
		mark := func(field, text string) string {
			if flagged(e.ID, field) {
				return text + " !"
			}
			return text
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			e.Ordinal,
			mark(validate.FieldName, e.Name),
			mark(validate.FieldImpressions, present.FormatCount(e.Impressions)),
			mark(validate.FieldConversions, present.FormatCount(e.Conversions)),
			mark(validate.FieldRevenue, present.FormatNumber(e.Revenue)),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "Baseline: %s\n", s.Baseline())
}
