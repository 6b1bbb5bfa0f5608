// Package chat runs the conversation pipeline: classify the question,
// retrieve database context for livestock questions, and generate the
// reply with the configured model.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/barnhand/barnhand/internal/knowledge"
	"github.com/barnhand/barnhand/internal/thread"
)

// historyWindow is how many recent turns are included in the prompt.
const historyWindow = 10

// Generator executes a prompt and returns the model's text response.
// *genai.Provider implements this.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ContextSource builds the retrieval context block for a query.
// *rag.ContextBuilder implements this.
type ContextSource interface {
	Build(ctx context.Context, query string, opts ...knowledge.SearchOption) (string, error)
}

// Reply is the outcome of one pipeline run.
type Reply struct {
	Text      string
	QueryType string // QueryLivestock or QueryGeneral
}

// Orchestrator runs the classify-retrieve-generate pipeline for a single
// message. It is stateless; history is passed in per call.
type Orchestrator struct {
	generator Generator
	contexts  ContextSource
	logger    *slog.Logger
}

// NewOrchestrator creates an Orchestrator. logger nil uses the default.
func NewOrchestrator(generator Generator, contexts ContextSource, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		generator: generator,
		contexts:  contexts,
		logger:    logger,
	}
}

// Run processes one user message against the given history and returns the
// reply. Livestock questions go through retrieval; everything else is
// answered directly.
func (o *Orchestrator) Run(ctx context.Context, input string, history []thread.Turn) (Reply, error) {
	queryType := o.classify(ctx, input)
	o.logger.Debug("query classified", "type", queryType)

	var dbContext string
	if queryType == QueryLivestock {
		dbContext = o.retrieve(ctx, input)
	}

	prompt := buildPrompt(queryType, input, dbContext, history)

	text, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to generate reply: %w", err)
	}

	return Reply{Text: text, QueryType: queryType}, nil
}

// classify asks the model whether the question is livestock-related. An
// empty question short-circuits to general without a model call; a model
// failure logs and degrades to general rather than failing the request.
func (o *Orchestrator) classify(ctx context.Context, input string) string {
	if strings.TrimSpace(input) == "" {
		return QueryGeneral
	}

	raw, err := o.generator.Generate(ctx, fmt.Sprintf(classificationPrompt, input))
	if err != nil {
		o.logger.Warn("classification failed, treating as general", "error", err)
		return QueryGeneral
	}
	return ParseClassification(raw)
}

// retrieve builds the database context for the question. Retrieval
// failures degrade to the no-context sentinel so the model still answers
// from its own knowledge.
func (o *Orchestrator) retrieve(ctx context.Context, input string) string {
	dbContext, err := o.contexts.Build(ctx, input)
	if err != nil {
		o.logger.Warn("context retrieval failed, answering without database context", "error", err)
		return ""
	}
	return dbContext
}

// buildPrompt assembles the full prompt: role preamble, optional database
// context, the last turns of the conversation, and the new question.
func buildPrompt(queryType, input, dbContext string, history []thread.Turn) string {
	parts := []string{generalPrompt}
	if queryType == QueryLivestock {
		parts = []string{systemPrompt}
	}

	if dbContext != "" {
		parts = append(parts, fmt.Sprintf("\n--- DATABASE CONTEXT ---\n%s\n--- END CONTEXT ---\n", dbContext))
	}

	if len(history) > 0 {
		parts = append(parts, "\nRecent conversation:")
		for _, turn := range lastTurns(history, historyWindow) {
			role := "Assistant"
			if turn.Role == thread.RoleUser {
				role = "User"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", role, turn.Content))
		}
	}

	parts = append(parts, fmt.Sprintf("\nUser: %s\n\nAssistant:", input))
	return strings.Join(parts, "\n")
}

func lastTurns(history []thread.Turn, n int) []thread.Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
