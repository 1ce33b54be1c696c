package cli

import (
	"fmt"

	"github.com/gkobilansky/janus-goat/internal/export"
	"github.com/gkobilansky/janus-goat/internal/present"
	"github.com/gkobilansky/janus-goat/internal/store"
	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export the results of a recorded run",
	Long: `Export the results of a recorded run as the flat results file or raw JSON.

Examples:
  janus export 3f2a... --format csv > experiment_results.csv
  janus export 3f2a... --format json > result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		run, err := getRun(s, args[0])
		if err != nil {
			return err
		}
		result, err := run.DecodeResult()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exportFormat == "json" {
			return export.WriteJSON(out, result)
		}

		view := present.New(nil, logger).Present(present.Context{Result: result, Baseline: run.Baseline})
		if err := export.Write(out, view.Tables()); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return nil
	})
}
