package providers

import (
	"context"
)

// EmbeddingProvider computes fixed-dimension text embeddings. The same
// provider must be shared between ingestion and query time so distances are
// comparable.
type EmbeddingProvider interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed vector dimension D.
	Dimension() int
}
