package thread

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the queries need.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries implements Querier against PostgreSQL.
type Queries struct {
	db DB
}

// NewQueries creates the pgx-backed Querier implementation.
func NewQueries(db DB) *Queries {
	return &Queries{db: db}
}

const getThreadSQL = `
SELECT thread_id, messages, message_count, created_at, updated_at
FROM threads
WHERE user_id = $1 AND thread_id = $2`

// GetThread loads one thread row.
func (q *Queries) GetThread(ctx context.Context, userID, threadID string) (Row, error) {
	var row Row
	err := q.db.QueryRow(ctx, getThreadSQL, userID, threadID).Scan(
		&row.ThreadID, &row.Messages, &row.MessageCount, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrNotFound
	}
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

const upsertThreadSQL = `
INSERT INTO threads (user_id, thread_id, messages, message_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (user_id, thread_id) DO UPDATE SET
    messages = EXCLUDED.messages,
    message_count = EXCLUDED.message_count,
    updated_at = EXCLUDED.updated_at`

// UpsertThread replaces the thread's messages. created_at is only written
// on first insert.
func (q *Queries) UpsertThread(ctx context.Context, userID, threadID string, messages []byte, messageCount int, now time.Time) error {
	_, err := q.db.Exec(ctx, upsertThreadSQL, userID, threadID, messages, messageCount, now)
	return err
}

const listThreadsSQL = `
SELECT thread_id, messages, message_count, created_at, updated_at
FROM threads
WHERE user_id = $1
ORDER BY updated_at DESC
LIMIT $2`

// ListThreads returns the user's threads, newest updated first.
func (q *Queries) ListThreads(ctx context.Context, userID string, limit int) ([]Row, error) {
	rows, err := q.db.Query(ctx, listThreadsSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ThreadID, &r.Messages, &r.MessageCount, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteThread removes a thread and reports whether it existed.
func (q *Queries) DeleteThread(ctx context.Context, userID, threadID string) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM threads WHERE user_id = $1 AND thread_id = $2`, userID, threadID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
