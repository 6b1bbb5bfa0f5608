package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/barnhand/barnhand/db"
	"github.com/barnhand/barnhand/internal/chat"
	"github.com/barnhand/barnhand/internal/config"
	"github.com/barnhand/barnhand/internal/genai"
	"github.com/barnhand/barnhand/internal/knowledge"
	"github.com/barnhand/barnhand/internal/livestock"
	"github.com/barnhand/barnhand/internal/log"
	"github.com/barnhand/barnhand/internal/observability"
	"github.com/barnhand/barnhand/internal/rag"
	"github.com/barnhand/barnhand/internal/thread"
)

// Setup creates and initializes the application.
// Call Close on the returned App to release resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must be registered before genkit.Init picks up the
	// TracerProvider.
	otelShutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelShutdown = otelShutdown

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	rt, err := genai.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up ai runtime: %w", err)
	}
	a.AI = rt

	a.Knowledge = knowledge.New(knowledge.NewQueries(pool), rt.Embedder, logger)
	a.Threads = thread.New(thread.NewQueries(pool), logger)

	source, err := provideLivestockSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Livestock = source

	var (
		extractor  rag.Extractor = noDocuments{}
		summarizer chat.Summarizer
	)
	if source != nil {
		extractor = source
		summarizer = source
	}

	a.Indexer = rag.NewIndexer(extractor, a.Knowledge, logger)
	a.Contexts = rag.NewContextBuilder(a.Knowledge, a.Indexer, logger)

	orchestrator := chat.NewOrchestrator(rt.Generator, a.Contexts, logger)
	a.Chat = chat.NewService(orchestrator, a.Threads, a.Indexer, summarizer, logger)

	return a, nil
}

// provideDBPool runs migrations and opens the pgx pool. Every connection
// registers the pgvector codec so vector columns scan natively.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideLivestockSource opens the read-only relational source. Returns
// nil without error when the source is not configured; a configured but
// unreachable source fails setup.
func provideLivestockSource(ctx context.Context, cfg *config.Config, logger log.Logger) (*livestock.Source, error) {
	if !cfg.LivestockConfigured() {
		logger.Info("livestock database not configured, serving from model knowledge only")
		return nil, nil
	}

	source := livestock.New(cfg.LivestockURL(), logger)
	if err := source.Open(ctx); err != nil {
		return nil, fmt.Errorf("connecting to livestock database: %w", err)
	}
	return source, nil
}

// noDocuments is the extractor used when no livestock source is
// configured. Rebuild over it indexes nothing.
type noDocuments struct{}

func (noDocuments) ExtractDocuments(context.Context) ([]knowledge.Document, error) {
	return nil, nil
}
