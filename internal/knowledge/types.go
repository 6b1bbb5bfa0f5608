package knowledge

// Document type constants. Every indexed document is either a breed record
// or a species record extracted from the livestock database.
const (
	// TypeBreed represents a single breed with its species and purposes.
	TypeBreed = "breed"

	// TypeSpecies represents a species with terminology, colors, patterns
	// and categories.
	TypeSpecies = "species"
)

// Document represents an indexed knowledge document.
type Document struct {
	ID       string            // Stable identifier, e.g. "breed_42" or "species_3"
	Content  string            // Searchable text content
	Type     string            // TypeBreed or TypeSpecies
	Metadata map[string]string // Source record details (breed_name, species_id, ...)
}

// Result represents a single search result with similarity score.
type Result struct {
	Document   Document
	Similarity float32 // Cosine similarity score (0-1)
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int
	docType string
}

// DefaultTopK is the number of results returned when WithTopK is not given.
const DefaultTopK = 10

// WithTopK sets the maximum number of results to return.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithType restricts results to a single document type.
// Example: WithType(knowledge.TypeBreed)
func WithType(docType string) SearchOption {
	return func(c *searchConfig) {
		c.docType = docType
	}
}

// buildSearchConfig applies search options and returns the final configuration.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK: DefaultTopK,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.topK <= 0 {
		cfg.topK = DefaultTopK
	}
	return cfg
}
