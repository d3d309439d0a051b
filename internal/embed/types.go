package embed

import (
	"context"
	"math"
)

// DefaultDimensions is the length of a verse fingerprint.
const DefaultDimensions = 384

// Embedder maps text to a fixed-length vector. The same text must always
// produce the same vector, and calls may run concurrently.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int

	// ModelName identifies the vector space; vectors from different
	// models are not comparable.
	ModelName() string

	Close() error
}

// unit converts v to float32 scaled to length 1. An all-zero v stays zero.
func unit(v []float64) []float32 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
