// Package thread persists conversation history per (user, thread) pair.
// A thread is stored as one row holding the full ordered message list, so
// saving is a whole-history replace rather than an append.
package thread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

// listLimit caps how many threads a user listing returns.
const listLimit = 20

// previewMaxLen caps the preview text in thread listings.
const previewMaxLen = 100

// ErrNotFound is returned by the Querier when a thread does not exist.
var ErrNotFound = errors.New("thread not found")

// Row is the storage representation of one thread.
type Row struct {
	ThreadID     string
	Messages     []byte // JSON-encoded []Turn
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Querier defines the database operations the Store needs. The pgx
// implementation lives in this package; tests supply a mock.
type Querier interface {
	// GetThread loads one thread row. Returns ErrNotFound when absent.
	GetThread(ctx context.Context, userID, threadID string) (Row, error)

	// UpsertThread replaces the thread's messages, preserving created_at
	// for existing threads.
	UpsertThread(ctx context.Context, userID, threadID string, messages []byte, messageCount int, now time.Time) error

	// ListThreads returns the user's threads, newest updated first.
	ListThreads(ctx context.Context, userID string, limit int) ([]Row, error)

	// DeleteThread removes a thread and reports whether it existed.
	DeleteThread(ctx context.Context, userID, threadID string) (bool, error)
}

// Store manages conversation history.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries Querier
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Store. logger nil uses the default.
func New(querier Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries: querier,
		logger:  logger,
		now:     time.Now,
	}
}

// Messages loads the full history of a thread in order. A missing thread
// yields an empty history, not an error.
func (s *Store) Messages(ctx context.Context, userID, threadID string) ([]Turn, error) {
	row, err := s.queries.GetThread(ctx, userID, threadID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s/%s: %w", userID, threadID, err)
	}

	var turns []Turn
	if err := json.Unmarshal(row.Messages, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode thread %s/%s: %w", userID, threadID, err)
	}
	return turns, nil
}

// Save replaces the thread's history with the given turns. Turns without a
// timestamp are stamped with the current time; existing timestamps are
// kept, so saving an extended history does not rewrite older turns.
func (s *Store) Save(ctx context.Context, userID, threadID string, turns []Turn) error {
	now := s.now().UTC()

	stamped := make([]Turn, len(turns))
	for i, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = now
		}
		stamped[i] = turn
	}

	encoded, err := json.Marshal(stamped)
	if err != nil {
		return fmt.Errorf("failed to encode thread %s/%s: %w", userID, threadID, err)
	}

	if err := s.queries.UpsertThread(ctx, userID, threadID, encoded, len(stamped), now); err != nil {
		return fmt.Errorf("failed to save thread %s/%s: %w", userID, threadID, err)
	}

	s.logger.Debug("saved thread", "user_id", userID, "thread_id", threadID, "messages", len(stamped))
	return nil
}

// List returns up to 20 of the user's threads, newest updated first, each
// with a preview of its opening user message.
func (s *Store) List(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.queries.ListThreads(ctx, userID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads for %s: %w", userID, err)
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		var turns []Turn
		if err := json.Unmarshal(row.Messages, &turns); err != nil {
			s.logger.Warn("skipping undecodable thread", "thread_id", row.ThreadID, "error", err)
			continue
		}

		summaries = append(summaries, Summary{
			ThreadID:     row.ThreadID,
			Preview:      preview(turns),
			MessageCount: row.MessageCount,
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
		})
	}
	return summaries, nil
}

// Delete removes a thread. It reports whether the thread existed.
func (s *Store) Delete(ctx context.Context, userID, threadID string) (bool, error) {
	existed, err := s.queries.DeleteThread(ctx, userID, threadID)
	if err != nil {
		return false, fmt.Errorf("failed to delete thread %s/%s: %w", userID, threadID, err)
	}
	if existed {
		s.logger.Info("deleted thread", "user_id", userID, "thread_id", threadID)
	}
	return existed, nil
}

// preview picks the first user turn, falling back to the first turn of any
// role, truncated to 100 characters.
func preview(turns []Turn) string {
	for _, turn := range turns {
		if turn.Role == RoleUser {
			return truncate(turn.Content, previewMaxLen)
		}
	}
	if len(turns) > 0 {
		return truncate(turns[0].Content, previewMaxLen)
	}
	return ""
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
