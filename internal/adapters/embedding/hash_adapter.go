package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/mindreel/backend/internal/domain/providers"
)

// HashAdapter is a deterministic local EmbeddingProvider used when no
// embedding backend is configured. Vectors are derived from token hashes, so
// identical texts always map to identical vectors and lookups stay stable
// across runs. Not semantically meaningful.
type HashAdapter struct {
	dimension int
}

// Ensure HashAdapter implements EmbeddingProvider
var _ providers.EmbeddingProvider = (*HashAdapter)(nil)

// NewHashAdapter creates a deterministic local embedding adapter
func NewHashAdapter(dimension int) *HashAdapter {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashAdapter{dimension: dimension}
}

// Dimension returns the fixed vector dimension
func (a *HashAdapter) Dimension() int {
	return a.dimension
}

// Embed returns a deterministic vector for text
func (a *HashAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, a.dimension)
	if text == "" {
		return vec, nil
	}

	for i, r := range text {
		h := fnv.New32a()
		h.Write([]byte{byte(r), byte(r >> 8), byte(r >> 16), byte(i)})
		idx := int(h.Sum32()) % a.dimension
		if idx < 0 {
			idx += a.dimension
		}
		vec[idx]++
	}

	// L2 normalize so distances are bounded
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return vec, nil
}
