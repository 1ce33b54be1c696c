package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gkobilansky/janus-goat/internal/inference"
	"github.com/gkobilansky/janus-goat/internal/server"
	"github.com/gkobilansky/janus-goat/internal/store"
	"github.com/spf13/cobra"
)

var (
	port     int
	simCount int
	seed     uint64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inference service",
	Long: `Start the janus inference service.

The server provides:
  - POST /api/analyze for experiment analysis
  - GET /api/runs for the run history
  - GET /metrics for Prometheus
  - Health check endpoint

Example:
  janus serve --port 8000`,
	RunE: runServe,
}

func init() {
	defaultPort := 8000
	if p := os.Getenv("JANUS_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	serveCmd.Flags().IntVar(&simCount, "sims", inference.DefaultSimCount, "posterior draws per variant")
	serveCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed for posterior sampling")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Open database
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	opts := inference.DefaultOptions()
	opts.SimCount = simCount
	opts.Seed = seed

	// Create and start server
	srv := server.New(s, port, opts, newLogger(cmd.ErrOrStderr(), verbose, true))
	return srv.Start()
}
