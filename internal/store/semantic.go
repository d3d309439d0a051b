package store

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/ayatsearch/internal/embed"
	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/normalize"
)

// SemanticIndex embeds each document's normalized blob and answers queries
// by cosine similarity against a VectorStore.
type SemanticIndex struct {
	norm     *normalize.Normalizer
	embedder embed.Embedder
	vectors  VectorStore
}

// NewSemanticIndex wires a normalizer, embedder and vector store together.
// The embedder should be wrapped in an embed.CachedEmbedder so repeated text
// is embedded once.
func NewSemanticIndex(n *normalize.Normalizer, embedder embed.Embedder, vectors VectorStore) *SemanticIndex {
	return &SemanticIndex{norm: n, embedder: embedder, vectors: vectors}
}

// IndexDocuments embeds and stores every document blob, replacing vectors
// already stored under the same IDs.
func (s *SemanticIndex) IndexDocuments(ctx context.Context, docs []NormalizedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]int, len(docs))
	blobs := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		blobs[i] = d.Blob
	}

	vecs, err := s.embedder.EmbedBatch(ctx, blobs)
	if err != nil {
		return aerrors.New(aerrors.ErrCodeEmbeddingFailed, "failed to embed documents", err)
	}
	if len(vecs) != len(ids) {
		return aerrors.InternalError(fmt.Sprintf("embedder returned %d vectors for %d documents", len(vecs), len(ids)), nil)
	}
	if err := s.vectors.Add(ctx, ids, vecs); err != nil {
		return aerrors.New(aerrors.ErrCodeIndexFailed, "failed to store document vectors", err)
	}
	return nil
}

// Search returns the k documents whose blobs are most similar to query.
// Scores are cosine similarities clamped to [0, 1]. A query that normalizes
// to nothing returns no results.
func (s *SemanticIndex) Search(ctx context.Context, query string, k int) ([]*VectorResult, error) {
	q := s.norm.Normalize(query)
	if q == "" || k <= 0 {
		return nil, nil
	}

	vec, err := s.embedder.Embed(ctx, q)
	if err != nil {
		return nil, aerrors.New(aerrors.ErrCodeEmbeddingFailed, "failed to embed query", err)
	}

	results, err := s.vectors.Search(ctx, vec, k)
	if err != nil {
		return nil, aerrors.New(aerrors.ErrCodeSearchFailed, "vector search failed", err)
	}
	for _, r := range results {
		r.Score = clamp01(r.Score)
	}
	return results, nil
}

// Count returns the number of stored vectors.
func (s *SemanticIndex) Count() int {
	return s.vectors.Count()
}

// Close closes the vector store and the embedder.
func (s *SemanticIndex) Close() error {
	vErr := s.vectors.Close()
	eErr := s.embedder.Close()
	if vErr != nil {
		return vErr
	}
	return eErr
}
