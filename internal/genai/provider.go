package genai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// Provider executes prompts against the configured model. It rate limits
// each attempt and retries transient failures with exponential backoff.
//
// Provider is safe for concurrent use.
type Provider struct {
	g           *genkit.Genkit
	modelName   string // Fully qualified, e.g. "googleai/gemini-2.0-flash"
	rateLimiter *rate.Limiter
	retryConfig RetryConfig
	logger      *slog.Logger
}

// NewProvider creates a Provider with default rate limiting and retry.
func NewProvider(g *genkit.Genkit, modelName string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		g:           g,
		modelName:   modelName,
		rateLimiter: rate.NewLimiter(10, 30),
		retryConfig: DefaultRetryConfig(),
		logger:      logger,
	}
}

// Generate executes the prompt and returns the model's text response.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.generateWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// generateWithRetry executes the prompt with exponential backoff retry.
// Each attempt passes through the rate limiter, including retries.
func (p *Provider) generateWithRetry(ctx context.Context, prompt string) (*ai.ModelResponse, error) {
	var lastErr error
	delay := p.retryConfig.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= p.retryConfig.MaxRetries; attempt++ {
		if p.rateLimiter != nil {
			if err := p.rateLimiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := genkit.Generate(ctx, p.g,
			ai.WithModelName(p.modelName),
			ai.WithPrompt(prompt),
		)
		if err == nil {
			p.logger.Debug("generate succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return resp, nil
		}

		lastErr = err

		if !retryableError(err) {
			return nil, fmt.Errorf("generate: %w", err)
		}

		if attempt == p.retryConfig.MaxRetries {
			break
		}

		p.logger.Debug("retrying after error",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, p.retryConfig.MaxInterval)
		}
	}

	return nil, fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		p.retryConfig.MaxRetries, time.Since(start), lastErr)
}
