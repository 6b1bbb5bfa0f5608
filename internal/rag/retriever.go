package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/barnhand/barnhand/internal/knowledge"
)

// NoContextFound is the context block used when search returns nothing.
// The model is told explicitly instead of receiving an empty string.
const NoContextFound = "No relevant information found in the database."

// contextHeader opens every non-empty context block.
const contextHeader = "Relevant information from the livestock database:\n"

// Searcher is the subset of *knowledge.Store the context builder needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Bootstrapper populates the index when it is found empty. *Indexer
// implements this.
type Bootstrapper interface {
	Rebuild(ctx context.Context, force bool) (int, error)
}

// ContextBuilder retrieves documents for a query and renders them as the
// context block handed to the language model. The first retrieval
// bootstraps the index if it has never been built.
//
// ContextBuilder is safe for concurrent use.
type ContextBuilder struct {
	searcher Searcher
	indexer  Bootstrapper
	logger   *slog.Logger

	ready atomic.Bool
	mu    sync.Mutex
}

// NewContextBuilder creates a ContextBuilder. logger nil uses the default.
func NewContextBuilder(searcher Searcher, indexer Bootstrapper, logger *slog.Logger) *ContextBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextBuilder{
		searcher: searcher,
		indexer:  indexer,
		logger:   logger,
	}
}

// ensureReady runs the non-forced rebuild once before the first search.
// A rebuild failure is returned to the caller and retried on the next
// request rather than latched.
func (cb *ContextBuilder) ensureReady(ctx context.Context) error {
	if cb.ready.Load() {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.ready.Load() {
		return nil
	}

	if _, err := cb.indexer.Rebuild(ctx, false); err != nil {
		return fmt.Errorf("index bootstrap failed: %w", err)
	}
	cb.ready.Store(true)
	return nil
}

// Build searches the index and renders the hits as a numbered context
// block. Results keep their similarity order. When nothing is found the
// sentinel NoContextFound is returned instead of an empty string.
func (cb *ContextBuilder) Build(ctx context.Context, query string, opts ...knowledge.SearchOption) (string, error) {
	if err := cb.ensureReady(ctx); err != nil {
		return "", err
	}

	results, err := cb.searcher.Search(ctx, query, opts...)
	if err != nil {
		return "", fmt.Errorf("context search failed: %w", err)
	}

	return FormatContext(results), nil
}

// FormatContext renders search results as the numbered context block.
func FormatContext(results []knowledge.Result) string {
	if len(results) == 0 {
		return NoContextFound
	}

	parts := []string{contextHeader}
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, r.Document.Content))
		parts = append(parts, fmt.Sprintf("   (Type: %s)", r.Document.Type))
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}
