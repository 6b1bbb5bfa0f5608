package api

import (
	"context"
	"net/http"
	"time"

	"github.com/barnhand/barnhand/internal/livestock"
	"github.com/barnhand/barnhand/internal/log"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SummarySource reports livestock database row counts. Optional; nil when
// the livestock source is not configured.
type SummarySource interface {
	Summary(ctx context.Context) (livestock.Summary, error)
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db      Pinger
	source  SummarySource
	version string
	logger  log.Logger
}

// NewHealthHandler creates a health handler. source may be nil.
func NewHealthHandler(db Pinger, source SummarySource, version string, logger log.Logger) *HealthHandler {
	return &HealthHandler{db: db, source: source, version: version, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.ready)
}

// health is the liveness probe. Reports the livestock summary best-effort;
// a failing source never turns the probe unhealthy.
func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "healthy",
		"version": h.version,
	}

	if h.source != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		summary, err := h.source.Summary(ctx)
		if err != nil {
			h.logger.Warn("livestock summary unavailable", "error", err)
			resp["livestock_database"] = "unavailable"
		} else {
			resp["livestock_database"] = summary
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ready is the readiness probe. Postgres must answer; the livestock source
// is reported but does not gate readiness.
func (h *HealthHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "not_ready",
			"postgres": "unreachable",
		})
		return
	}

	resp := map[string]any{
		"status":   "ready",
		"postgres": "ok",
	}
	if h.source != nil {
		if _, err := h.source.Summary(ctx); err != nil {
			resp["livestock_database"] = "unavailable"
		} else {
			resp["livestock_database"] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
