// Package app initializes the application: configuration, logging,
// storage, the AI runtime, and the chat pipeline, wired together in
// dependency order. Entry points call Setup once and work with the
// returned App.
package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barnhand/barnhand/internal/chat"
	"github.com/barnhand/barnhand/internal/config"
	"github.com/barnhand/barnhand/internal/genai"
	"github.com/barnhand/barnhand/internal/knowledge"
	"github.com/barnhand/barnhand/internal/livestock"
	"github.com/barnhand/barnhand/internal/log"
	"github.com/barnhand/barnhand/internal/rag"
	"github.com/barnhand/barnhand/internal/thread"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Pool      *pgxpool.Pool
	Knowledge *knowledge.Store
	Threads   *thread.Store

	// Livestock is nil when the relational source is not configured.
	Livestock *livestock.Source

	AI       *genai.Runtime
	Indexer  *rag.Indexer
	Contexts *rag.ContextBuilder
	Chat     *chat.Service

	otelShutdown func(context.Context) error
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() error {
	a.Logger.Info("shutting down")

	var firstErr error

	if a.Livestock != nil {
		if err := a.Livestock.Close(); err != nil {
			a.Logger.Warn("closing livestock source", "error", err)
			firstErr = err
		}
	}

	if a.Pool != nil {
		a.Pool.Close()
	}

	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Logger.Warn("shutting down tracer provider", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
