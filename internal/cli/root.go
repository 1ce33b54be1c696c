package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	dbPath    string
	verbose   bool

	logger = slog.Default()
)

// dotenvLoaded makes .env values visible to the flag defaults below. It runs
// during variable initialization, before any init function.
var dotenvLoaded = loadDotEnv()

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Janus - Bayesian A/B test analysis",
	Long: `Janus compares experiment variants on conversion, ARPU and revenue per sale.

Enter impressions, conversions and revenue per variant, pick a baseline, and
janus asks the inference service for posterior statistics, ranks the
variants and draws their density curves.

Running without a subcommand starts an interactive session.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(cmd.ErrOrStderr(), verbose, false)
		logger.Debug("configuration",
			slog.String("server", serverURL),
			slog.String("db", dbPath),
			slog.Bool("dotenv", dotenvLoaded))
	},
	RunE: runSession, // Default action is an interactive session
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", getEnvOrDefault("JANUS_SERVER_URL", "http://localhost:8000"), "inference service URL")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("JANUS_DB_PATH", "./janus.db"), "run history database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadDotEnv reads ./.env if present. Variables already set in the
// environment win.
func loadDotEnv() bool {
	return godotenv.Load() == nil
}

func newLogger(w io.Writer, debug, asJSON bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
