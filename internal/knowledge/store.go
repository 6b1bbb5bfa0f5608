// Package knowledge stores livestock documents with vector embeddings in
// PostgreSQL and serves cosine-similarity search over them.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"
)

// deleteChunkSize bounds how many documents a single delete round removes,
// so a full clear never holds one giant transaction.
const deleteChunkSize = 100

// searchTimeout caps vector search queries to prevent blocking.
const searchTimeout = 10 * time.Second

// Querier defines the database operations the Store needs. Interfaces are
// defined by the consumer, not the provider (like http.RoundTripper,
// io.Reader), so tests can supply a mock and production supplies the pgx
// implementation from this package.
type Querier interface {
	// UpsertDocuments inserts or updates the given rows in one round trip.
	UpsertDocuments(ctx context.Context, rows []DocumentRow) error

	// SearchDocuments performs vector search, optionally filtered by type.
	// docType "" means no filter.
	SearchDocuments(ctx context.Context, embedding pgvector.Vector, docType string, limit int) ([]SearchRow, error)

	// CountDocuments counts all documents.
	CountDocuments(ctx context.Context) (int64, error)

	// HasDocuments reports whether at least one document exists.
	HasDocuments(ctx context.Context) (bool, error)

	// ListDocumentIDs returns up to limit document IDs.
	ListDocumentIDs(ctx context.Context, limit int) ([]string, error)

	// DeleteDocuments removes the documents with the given IDs.
	DeleteDocuments(ctx context.Context, ids []string) error
}

// DocumentRow is the storage representation of a document.
type DocumentRow struct {
	ID        string
	Content   string
	DocType   string
	Metadata  []byte
	Embedding pgvector.Vector
}

// SearchRow is a single vector search hit.
type SearchRow struct {
	ID         string
	Content    string
	DocType    string
	Metadata   []byte
	Similarity float64
}

// Store manages knowledge documents with vector search capabilities.
// It handles embedding generation and similarity search using
// PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a new Store instance.
//
// Parameters:
//   - querier: Database querier implementing Querier interface
//   - embedder: AI embedder for generating vector embeddings
//   - logger: Logger for debugging (nil = use default)
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Indexed reports whether the store already holds any documents.
func (s *Store) Indexed(ctx context.Context) (bool, error) {
	has, err := s.queries.HasDocuments(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check index: %w", err)
	}
	return has, nil
}

// Count returns the number of indexed documents. On failure it returns -1
// so callers that only log the count can proceed.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.queries.CountDocuments(ctx)
	if err != nil {
		return -1, fmt.Errorf("count failed: %w", err)
	}
	if count > math.MaxInt {
		return -1, fmt.Errorf("document count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// AddBatch embeds the given documents in a single request and upserts them
// in one round trip. Either every document in the batch is stored or none is.
func (s *Store) AddBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	input := make([]*ai.Document, 0, len(docs))
	for _, doc := range docs {
		input = append(input, &ai.Document{
			Content: []*ai.Part{ai.NewTextPart(doc.Content)},
		})
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: input})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(docs) {
		return fmt.Errorf("embedder returned %d embeddings for %d documents", len(resp.Embeddings), len(docs))
	}

	rows := make([]DocumentRow, 0, len(docs))
	for i, doc := range docs {
		if len(resp.Embeddings[i].Embedding) == 0 {
			return fmt.Errorf("empty embedding returned for document %q", doc.ID)
		}

		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %q: %w", doc.ID, err)
		}

		rows = append(rows, DocumentRow{
			ID:        doc.ID,
			Content:   doc.Content,
			DocType:   doc.Type,
			Metadata:  metadataJSON,
			Embedding: pgvector.NewVector(resp.Embeddings[i].Embedding),
		})
	}

	if err := s.queries.UpsertDocuments(ctx, rows); err != nil {
		return fmt.Errorf("failed to upsert document batch: %w", err)
	}

	s.logger.Debug("added document batch", "count", len(rows))
	return nil
}

// Search performs semantic search using functional options. It returns the
// most similar documents to the query, ordered by similarity score.
//
// Example usage:
//
//	results, err := store.Search(ctx, "dairy cattle",
//	    knowledge.WithTopK(10),
//	    knowledge.WithType(knowledge.TypeBreed))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	resp, err := s.embedder.Embed(queryCtx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{
				Content: []*ai.Part{ai.NewTextPart(query)},
			},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}

	embedding := pgvector.NewVector(resp.Embeddings[0].Embedding)

	rows, err := s.queries.SearchDocuments(queryCtx, embedding, cfg.docType, cfg.topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return s.rowsToResults(rows), nil
}

// DeleteAll removes every document in chunks and returns how many were
// deleted.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	for {
		ids, err := s.queries.ListDocumentIDs(ctx, deleteChunkSize)
		if err != nil {
			return deleted, fmt.Errorf("failed to list documents for deletion: %w", err)
		}
		if len(ids) == 0 {
			return deleted, nil
		}

		if err := s.queries.DeleteDocuments(ctx, ids); err != nil {
			return deleted, fmt.Errorf("failed to delete documents: %w", err)
		}
		deleted += len(ids)
		s.logger.Debug("deleted documents", "total", deleted)
	}
}

// rowsToResults converts search rows to business model Results.
func (s *Store) rowsToResults(rows []SearchRow) []Result {
	results := make([]Result, 0, len(rows))

	for _, row := range rows {
		var metadata map[string]string
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
				s.logger.Warn("failed to parse metadata", "document_id", row.ID, "error", err)
				metadata = nil
			}
		}

		results = append(results, Result{
			Document: Document{
				ID:       row.ID,
				Content:  row.Content,
				Type:     row.DocType,
				Metadata: metadata,
			},
			Similarity: float32(row.Similarity),
		})
	}

	return results
}
