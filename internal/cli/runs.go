package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gkobilansky/janus-goat/internal/present"
	"github.com/gkobilansky/janus-goat/internal/store"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded analysis runs",
	Long:  `List the analyses handled by the local inference service, newest first.`,
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the results of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		runs, err := s.ListRuns(context.Background(), runsLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs yet.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Start the service with 'janus serve' and run an analysis against it.")
			return nil
		}

		// Print table
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tBASELINE\tVARIANTS\tDURATION\tCREATED")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				run.ID,
				strings.ToUpper(string(run.Status)),
				run.Baseline,
				run.VariantCount,
				run.Duration,
				run.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	})
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		run, err := getRun(s, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "RUN: %s\n", run.ID)
		fmt.Fprintf(out, "STATUS: %s\n", run.Status)
		fmt.Fprintf(out, "BASELINE: %s\n", run.Baseline)
		fmt.Fprintf(out, "CREATED: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
		if run.Status == store.StatusFailed {
			fmt.Fprintf(out, "ERROR: %s\n", run.Error)
			return nil
		}
		fmt.Fprintln(out)

		result, err := run.DecodeResult()
		if err != nil {
			return err
		}
		view := present.New(nil, logger).Present(present.Context{Result: result, Baseline: run.Baseline})
		printView(out, view, result)
		return nil
	})
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		err := s.DeleteRun(context.Background(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run '%s' not found", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
		return nil
	})
}

func getRun(s store.Store, id string) (*store.Run, error) {
	run, err := s.GetRun(context.Background(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("run '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}
