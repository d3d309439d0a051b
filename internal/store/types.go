// Package store holds the in-memory indexes behind verse search: the fuzzy
// lexical index and the vector stores used by the pseudo-semantic index.
// Nothing here is persisted; indexes are built once from a document
// collection and then only read.
package store

import (
	"context"
	"fmt"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
)

// Document is one verse with its display fields. Documents are owned by the
// caller; indexes copy what they need.
type Document struct {
	ID              int    `json:"id"`
	Text            string `json:"text"`                 // Primary text, Arabic script
	TextClean       string `json:"text_clean,omitempty"` // Pre-normalized variant, preferred when set
	Transliteration string `json:"transliteration,omitempty"`
	Translation     string `json:"translation,omitempty"`
	Commentary      string `json:"commentary,omitempty"`
	Chapter         int    `json:"chapter,omitempty"` // 0 when the collection is not split by chapter
}

// PrimarySource returns the primary text used for matching.
func (d Document) PrimarySource() string {
	if d.TextClean != "" {
		return d.TextClean
	}
	return d.Text
}

// LexicalResult is one lexical match.
type LexicalResult struct {
	DocID int
	Score float64 // Similarity in [0, 1], 1 is a perfect match
}

// LexicalIndex answers fuzzy text queries.
type LexicalIndex interface {
	Search(query string) []*LexicalResult
	Len() int
}

// VectorResult is one nearest-neighbour match.
type VectorResult struct {
	ID    int
	Score float64 // Cosine similarity
}

// VectorStore holds document vectors and answers top-k cosine queries.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []int, vectors [][]float32) error

	// Search finds the k vectors most similar to query, best first.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Contains checks if ID exists.
	Contains(id int) bool

	// Count returns number of vectors.
	Count() int

	Close() error
}

// VectorStoreConfig configures a vector store.
type VectorStoreConfig struct {
	// Dimensions is the vector dimension (384 for fingerprints).
	Dimensions int

	// M is HNSW max connections per layer (default: 16)
	M int

	// EfSearch is HNSW query-time search width (default: 64)
	EfSearch int

	// Seed makes HNSW level assignment reproducible.
	Seed int64
}

// DefaultVectorStoreConfig returns sensible defaults for vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		M:          16,
		EfSearch:   64,
		Seed:       1,
	}
}

var errStoreClosed = fmt.Errorf("store is closed")

func dimensionMismatch(expected, got int) error {
	return aerrors.Newf(aerrors.ErrCodeDimensionMismatch,
		"dimension mismatch: expected %d, got %d", expected, got).
		WithSuggestion("Rebuild the index with the same embedding dimensions used for queries")
}
