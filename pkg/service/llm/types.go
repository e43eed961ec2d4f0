package llm

import "context"

// Embedder turns text into embedding vectors for index writes and searches
type Embedder interface {
	// Embed generates the embedding vector for one text. Failures wrap
	// ErrEmbedding. There is no retry and no caching here.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the configured embedding vector size
	Dimension() int
}
