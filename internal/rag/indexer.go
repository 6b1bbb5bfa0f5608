// Package rag builds and queries the livestock vector index: the Indexer
// extracts documents from the relational source and embeds them into the
// knowledge store, and the ContextBuilder turns search hits into the
// context block fed to the language model.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/barnhand/barnhand/internal/knowledge"
)

// embedBatchSize bounds how many documents one embedding request carries.
const embedBatchSize = 20

// Extractor produces the documents to index. *livestock.Source implements
// this; tests supply a fixture.
type Extractor interface {
	ExtractDocuments(ctx context.Context) ([]knowledge.Document, error)
}

// Store is the subset of *knowledge.Store the indexer needs.
type Store interface {
	Indexed(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int, error)
	AddBatch(ctx context.Context, docs []knowledge.Document) error
	DeleteAll(ctx context.Context) (int, error)
}

// Indexer rebuilds the vector index from the livestock source.
type Indexer struct {
	extractor Extractor
	store     Store
	logger    *slog.Logger
}

// NewIndexer creates an Indexer. logger nil uses the default.
func NewIndexer(extractor Extractor, store Store, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// Rebuild populates the index from the livestock source and returns how
// many documents are indexed.
//
// Without force, an already-populated index is left untouched and its
// current document count is returned. With force, every existing document
// is deleted first and the index is rebuilt from scratch. Because document
// IDs and content derive deterministically from source rows, rebuilding
// over unchanged data converges to the same index.
func (ix *Indexer) Rebuild(ctx context.Context, force bool) (int, error) {
	if !force {
		indexed, err := ix.store.Indexed(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to check existing index: %w", err)
		}
		if indexed {
			count, err := ix.store.Count(ctx)
			if err != nil {
				ix.logger.Warn("could not count existing index", "error", err)
				return 0, nil
			}
			ix.logger.Info("using existing index", "documents", count)
			return count, nil
		}
	}

	ix.logger.Info("building vector index from livestock database")

	if force {
		deleted, err := ix.store.DeleteAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to clear index: %w", err)
		}
		if deleted > 0 {
			ix.logger.Info("cleared existing index", "deleted", deleted)
		}
	}

	docs, err := ix.extractor.ExtractDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to extract documents: %w", err)
	}
	if len(docs) == 0 {
		ix.logger.Warn("no documents to index")
		return 0, nil
	}

	ix.logger.Info("generating embeddings", "documents", len(docs))

	indexed := 0
	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))

		if err := ix.store.AddBatch(ctx, docs[start:end]); err != nil {
			return indexed, fmt.Errorf("failed to index batch at %d: %w", start, err)
		}
		indexed = end
		ix.logger.Debug("indexed batch", "progress", indexed, "total", len(docs))
	}

	ix.logger.Info("index complete", "documents", indexed)
	return indexed, nil
}
