// Package genai initializes the Genkit runtime for the configured Google
// provider and wraps model calls with rate limiting and retry.
package genai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/barnhand/barnhand/internal/config"
)

// Runtime bundles the initialized Genkit instance with the embedder and
// generator built from it.
type Runtime struct {
	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	Generator *Provider
}

// Setup initializes Genkit with the configured provider plugin and returns
// the runtime. The Gemini API key is read from the environment by the
// plugin itself (GEMINI_API_KEY or GOOGLE_API_KEY); Vertex AI uses
// application default credentials.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		g        *genkit.Genkit
		embedder ai.Embedder
	)

	switch cfg.Provider {
	case config.ProviderGoogleAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		embedder = googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
		logger.Info("using Google AI", "embedder", cfg.EmbedderModel, "model", cfg.ModelName)

	case config.ProviderVertexAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.VertexAI{
			ProjectID: cfg.GoogleCloudProject,
			Location:  cfg.GoogleCloudLocation,
		}))
		embedder = googlegenai.VertexAIEmbedder(g, cfg.EmbedderModel)
		logger.Info("using Vertex AI",
			"project", cfg.GoogleCloudProject,
			"location", cfg.GoogleCloudLocation,
			"embedder", cfg.EmbedderModel,
			"model", cfg.ModelName)

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not available for provider %q", cfg.EmbedderModel, cfg.Provider)
	}

	generator := NewProvider(g, cfg.FullModelName(), logger)

	return &Runtime{
		Genkit:    g,
		Embedder:  embedder,
		Generator: generator,
	}, nil
}
