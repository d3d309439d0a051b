package embed

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
)

// FingerprintModelName identifies vectors produced by FingerprintEmbedder.
const FingerprintModelName = "fingerprint"

// Slot mixing constants. Changing any of them changes every vector, so an
// index built with one set cannot be queried with another.
const (
	charMultiplier   = 7
	tokenMultiplier  = 31
	offsetMultiplier = 13
)

// FingerprintEmbedder maps text to a character-position fingerprint.
// It needs no model and no network: each character of each whitespace token
// adds weight to one slot chosen from its code point, token index and
// offset. Earlier tokens weigh more (1/ln(i+2)) and so do leading characters
// (1/(j+1)). The result is L2-normalized, so texts sharing characters in
// similar positions get a high cosine similarity. It captures surface
// overlap only, not meaning.
type FingerprintEmbedder struct {
	dims int

	mu     sync.RWMutex
	closed bool
}

// NewFingerprintEmbedder creates a fingerprint embedder with the given
// dimensions; non-positive values fall back to DefaultDimensions.
func NewFingerprintEmbedder(dims int) *FingerprintEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &FingerprintEmbedder{dims: dims}
}

// Embed generates embedding for a single text.
// Empty or whitespace-only text yields the zero vector.
func (e *FingerprintEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, fmt.Errorf("embedder is closed")
	}
	return e.fingerprint(text), nil
}

func (e *FingerprintEmbedder) fingerprint(text string) []float32 {
	acc := make([]float64, e.dims)
	for i, token := range strings.Fields(text) {
		tokenWeight := 1 / math.Log(float64(i+2))
		j := 0
		for _, r := range token {
			slot := (int(r)*charMultiplier + i*tokenMultiplier + j*offsetMultiplier) % e.dims
			acc[slot] += tokenWeight / float64(j+1)
			j++
		}
	}
	return unit(acc)
}

// EmbedBatch generates embeddings for multiple texts.
func (e *FingerprintEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results[i] = e.fingerprint(text)
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *FingerprintEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the model identifier.
func (e *FingerprintEmbedder) ModelName() string {
	return FingerprintModelName
}

// Close marks the embedder closed; later calls fail.
func (e *FingerprintEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
