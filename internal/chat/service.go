package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/barnhand/barnhand/internal/livestock"
	"github.com/barnhand/barnhand/internal/thread"
)

// fallbackReply is returned when the model produces no text at all.
const fallbackReply = "I apologize, but I couldn't generate a response."

// HistoryStore is the subset of *thread.Store the service needs.
type HistoryStore interface {
	Messages(ctx context.Context, userID, threadID string) ([]thread.Turn, error)
	Save(ctx context.Context, userID, threadID string, turns []thread.Turn) error
}

// Rebuilder populates the vector index. *rag.Indexer implements this.
type Rebuilder interface {
	Rebuild(ctx context.Context, force bool) (int, error)
}

// Summarizer reports livestock database counts. *livestock.Source
// implements this.
type Summarizer interface {
	Summary(ctx context.Context) (livestock.Summary, error)
}

// Service ties the pipeline to conversation persistence: it loads the
// thread history, runs the orchestrator, and saves the extended history.
type Service struct {
	orchestrator *Orchestrator
	threads      HistoryStore
	indexer      Rebuilder
	source       Summarizer
	logger       *slog.Logger
}

// NewService creates a Service. source may be nil when no livestock
// database is configured. logger nil uses the default.
func NewService(orchestrator *Orchestrator, threads HistoryStore, indexer Rebuilder, source Summarizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orchestrator: orchestrator,
		threads:      threads,
		indexer:      indexer,
		source:       source,
		logger:       logger,
	}
}

// Chat processes one message in a thread and returns the reply. The user
// turn and the reply are appended to the thread's history. An empty model
// response is replaced with an apology instead of an empty reply.
func (s *Service) Chat(ctx context.Context, userID, threadID, message string) (string, error) {
	history, err := s.threads.Messages(ctx, userID, threadID)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	reply, err := s.orchestrator.Run(ctx, message, history)
	if err != nil {
		return "", err
	}

	text := reply.Text
	if text == "" {
		s.logger.Warn("model returned empty reply", "thread_id", threadID)
		text = fallbackReply
	}

	extended := append(history,
		thread.Turn{Role: thread.RoleUser, Content: message},
		thread.Turn{Role: thread.RoleAssistant, Content: text},
	)
	if err := s.threads.Save(ctx, userID, threadID, extended); err != nil {
		// Reply already generated; log the persistence failure and return it.
		s.logger.Error("failed to save thread", "thread_id", threadID, "error", err)
	}

	s.logger.Info("chat turn complete",
		"user_id", userID,
		"thread_id", threadID,
		"query_type", reply.QueryType,
		"reply_length", len(text))
	return text, nil
}

// Initialize builds the vector index if needed and logs the database
// summary. Call once at startup.
func (s *Service) Initialize(ctx context.Context) (int, error) {
	s.logger.Info("initializing retrieval index")

	count, err := s.indexer.Rebuild(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize index: %w", err)
	}

	if s.source != nil {
		if summary, err := s.source.Summary(ctx); err == nil {
			s.logger.Info("ready",
				"species", summary.TotalSpecies,
				"breeds", summary.TotalBreeds,
				"indexed_documents", count)
			return count, nil
		}
		s.logger.Warn("livestock database unavailable for summary")
	}

	s.logger.Info("ready", "indexed_documents", count)
	return count, nil
}
