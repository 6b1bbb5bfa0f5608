package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// EmbeddingDim matches the vector(768) column in the schema.
const EmbeddingDim = 768

// HashEmbedder is a deterministic bag-of-words embedder. Each token is
// hashed into a dimension, so texts sharing words land closer in cosine
// distance than unrelated texts. It implements ai.Embedder without any
// network access, which makes retrieval ranking testable.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a HashEmbedder. dim <= 0 uses EmbeddingDim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = EmbeddingDim
	}
	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) Name() string { return "test/hash-embedder" }

func (e *HashEmbedder) Register(api.Registry) {}

func (e *HashEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text strings.Builder
		for _, part := range doc.Content {
			text.WriteString(part.Text)
			text.WriteString(" ")
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: e.vector(text.String()),
		})
	}
	return resp, nil
}

// vector hashes each lowercased token into a dimension and normalizes the
// result to unit length.
func (e *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%e.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
