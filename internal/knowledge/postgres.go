package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// DB is the subset of pgxpool.Pool the queries need.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Queries implements Querier against PostgreSQL with the pgvector extension.
// The pool must have pgvector types registered (see app setup).
type Queries struct {
	db DB
}

// NewQueries creates the pgx-backed Querier implementation.
func NewQueries(db DB) *Queries {
	return &Queries{db: db}
}

const upsertDocumentSQL = `
INSERT INTO documents (id, content, doc_type, metadata, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    content = EXCLUDED.content,
    doc_type = EXCLUDED.doc_type,
    metadata = EXCLUDED.metadata,
    embedding = EXCLUDED.embedding,
    updated_at = now()`

// UpsertDocuments writes all rows in a single batched round trip. The batch
// runs in an implicit transaction, so a failure leaves no partial writes.
func (q *Queries) UpsertDocuments(ctx context.Context, rows []DocumentRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertDocumentSQL, row.ID, row.Content, row.DocType, row.Metadata, row.Embedding)
	}

	results := q.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert %q: %w", rows[i].ID, err)
		}
	}
	return results.Close()
}

const searchDocumentsSQL = `
SELECT id, content, doc_type, metadata,
       1 - (embedding <=> $1) AS similarity
FROM documents
ORDER BY embedding <=> $1
LIMIT $2`

const searchDocumentsByTypeSQL = `
SELECT id, content, doc_type, metadata,
       1 - (embedding <=> $1) AS similarity
FROM documents
WHERE doc_type = $2
ORDER BY embedding <=> $1
LIMIT $3`

// SearchDocuments returns the documents nearest to the embedding by cosine
// distance. docType "" searches all documents.
func (q *Queries) SearchDocuments(ctx context.Context, embedding pgvector.Vector, docType string, limit int) ([]SearchRow, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if docType == "" {
		rows, err = q.db.Query(ctx, searchDocumentsSQL, embedding, limit)
	} else {
		rows, err = q.db.Query(ctx, searchDocumentsByTypeSQL, embedding, docType, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.ID, &r.Content, &r.DocType, &r.Metadata, &r.Similarity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountDocuments counts all documents.
func (q *Queries) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// HasDocuments reports whether at least one document exists.
func (q *Queries) HasDocuments(ctx context.Context) (bool, error) {
	var has bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents)`).Scan(&has)
	return has, err
}

// ListDocumentIDs returns up to limit document IDs.
func (q *Queries) ListDocumentIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT id FROM documents LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteDocuments removes the documents with the given IDs.
func (q *Queries) DeleteDocuments(ctx context.Context, ids []string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM documents WHERE id = ANY($1)`, ids)
	return err
}
