package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marcrank/internal/rankcmd"
)

// LogLevelEnv names the environment variable selecting the log level
const LogLevelEnv = "MARCRANK_LOG_LEVEL"

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "marcrank",
		Short: "Pick the preferred record from a pair of duplicate MARC records",
		Long: `marcrank decides which of two bibliographic records describing the same
work should be kept when the records are merged.

Each record is scored by an ordered list of configurable features; every
feature is normalized against the other record and the higher total wins.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging (same as "+LogLevelEnv+"=debug)")

	cmd.AddCommand(rankcmd.NewRankCmd())
	cmd.AddCommand(rankcmd.NewBatchCmd())
	cmd.AddCommand(rankcmd.NewValidateCmd())
	cmd.AddCommand(rankcmd.NewListCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func setupLogging(verbose bool) {
	level := parseLevel(os.Getenv(LogLevelEnv))
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
