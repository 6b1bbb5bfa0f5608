// Package api exposes the chat service over HTTP: the chat endpoint,
// conversation history, index statistics, health probes, and a small
// embedded web client.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/barnhand/barnhand/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server wires the HTTP handlers and owns the listener lifecycle.
type Server struct {
	addr       string
	chat       *ChatHandler
	threads    *ThreadHandler
	stats      *StatsHandler
	health     *HealthHandler
	corsOrigin []string
	logger     log.Logger
}

// NewServer creates a server from the given handlers. corsOrigins may be
// empty to disable cross-origin access, or contain "*" to allow any origin.
func NewServer(addr string, chat *ChatHandler, threads *ThreadHandler, stats *StatsHandler, health *HealthHandler, corsOrigins []string, logger log.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:       addr,
		chat:       chat,
		threads:    threads,
		stats:      stats,
		health:     health,
		corsOrigin: corsOrigins,
		logger:     logger,
	}
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.chat.RegisterRoutes(mux)
	s.threads.RegisterRoutes(mux)
	s.stats.RegisterRoutes(mux)
	s.health.RegisterRoutes(mux)
	registerWebRoutes(mux)

	handler := chain(mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
	if len(s.corsOrigin) > 0 {
		handler = corsMiddleware(s.corsOrigin)(handler)
	}
	return handler
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
