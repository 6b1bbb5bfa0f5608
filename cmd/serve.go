package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/barnhand/barnhand/api"
	"github.com/barnhand/barnhand/internal/app"
	"github.com/barnhand/barnhand/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe initializes the application and serves HTTP until interrupted.
func runServe(parent context.Context) error {
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
	logger.Info("starting barnhand", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	// Build the index before accepting traffic so the first chat request
	// does not pay the bootstrap cost.
	if count, err := a.Chat.Initialize(ctx); err != nil {
		logger.Warn("index initialization failed, retrying on first request", "error", err)
	} else {
		logger.Info("index ready", "documents", count)
	}

	var (
		summary api.SummarySource
		breeds  api.BreedSearcher
	)
	if a.Livestock != nil {
		summary = a.Livestock
		breeds = a.Livestock
	}

	server := api.NewServer(cfg.ListenAddr,
		api.NewChatHandler(a.Chat, logger),
		api.NewThreadHandler(a.Threads, logger),
		api.NewStatsHandler(a.Knowledge, summary, breeds, logger),
		api.NewHealthHandler(a.Pool, summary, AppVersion, logger),
		cfg.CORSOrigins,
		logger,
	)

	return server.Run(ctx)
}
