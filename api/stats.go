package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/barnhand/barnhand/internal/livestock"
	"github.com/barnhand/barnhand/internal/log"
)

// IndexStats reports the state of the vector index.
type IndexStats interface {
	Count(ctx context.Context) (int, error)
}

// BreedSearcher searches breeds by name in the relational source.
type BreedSearcher interface {
	SearchBreeds(ctx context.Context, term string) ([]livestock.Breed, error)
}

// StatsHandler serves index statistics and breed lookups.
type StatsHandler struct {
	index   IndexStats
	source  SummarySource
	breeds  BreedSearcher
	logger  log.Logger
}

// NewStatsHandler creates a stats handler. source and breeds may be nil
// when the livestock database is not configured.
func NewStatsHandler(index IndexStats, source SummarySource, breeds BreedSearcher, logger log.Logger) *StatsHandler {
	return &StatsHandler{index: index, source: source, breeds: breeds, logger: logger}
}

// RegisterRoutes registers stats routes on the given mux.
func (h *StatsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats", h.stats)
	mux.HandleFunc("GET /api/breeds", h.searchBreeds)
}

// stats reports the indexed document count and, when available, the
// livestock database summary.
func (h *StatsHandler) stats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{}

	count, err := h.index.Count(r.Context())
	if err != nil {
		h.logger.Warn("failed to count indexed documents", "error", err)
		resp["indexed_documents"] = -1
	} else {
		resp["indexed_documents"] = count
	}

	if h.source != nil {
		summary, err := h.source.Summary(r.Context())
		if err != nil {
			h.logger.Warn("livestock summary unavailable", "error", err)
		} else {
			resp["livestock_database"] = summary
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// searchBreeds looks up breeds by name. Requires the livestock source.
func (h *StatsHandler) searchBreeds(w http.ResponseWriter, r *http.Request) {
	if h.breeds == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "livestock database not configured")
		return
	}

	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query parameter q is required")
		return
	}

	breeds, err := h.breeds.SearchBreeds(r.Context(), term)
	if err != nil {
		h.logger.Error("breed search failed", "term", term, "error", err)
		writeError(w, http.StatusInternalServerError, "search_failed", "failed to search breeds")
		return
	}
	if breeds == nil {
		breeds = []livestock.Breed{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"breeds": breeds,
		"total":  len(breeds),
	})
}
