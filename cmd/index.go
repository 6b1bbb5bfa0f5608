package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/barnhand/barnhand/internal/app"
	"github.com/barnhand/barnhand/internal/config"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from the livestock database",
	Long: `Index extracts breed and species documents from the livestock database,
embeds them, and stores them in the vector index.

Without --force an already-populated index is left untouched. With
--force the index is cleared and rebuilt from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd.Context(), indexForce)
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "clear and rebuild the index")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(parent context.Context, force bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	if a.Livestock == nil {
		return fmt.Errorf("livestock database not configured, nothing to index")
	}

	count, err := a.Indexer.Rebuild(ctx, force)
	if err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	fmt.Printf("Indexed %d documents\n", count)
	return nil
}
