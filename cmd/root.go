// Package cmd implements the barnhand CLI: the HTTP server, the index
// rebuild command, and version reporting.
package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/barnhand/barnhand/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "barnhand",
	Short: "Barnhand - livestock advisor chat service",
	Long: `Barnhand answers questions about livestock breeds, species, colors,
and husbandry. It grounds its answers in a relational livestock database
through a vector index, and serves a chat API with per-thread history.

Running barnhand without a subcommand starts the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

// Execute runs the root command. Called from main.
func Execute() error {
	// Local development reads credentials from .env; absence is fine.
	_ = godotenv.Load()

	logger := initLogger()
	slog.SetDefault(logger)

	return rootCmd.Execute()
}

// initLogger builds the process logger. DEBUG in the environment enables
// debug level.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
