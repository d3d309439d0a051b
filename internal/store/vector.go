package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ExactVectorStore implements VectorStore with a brute-force cosine scan.
// Results are exact and deterministic: equal scores keep insertion order.
type ExactVectorStore struct {
	mu     sync.RWMutex
	dims   int
	ids    []int
	vecs   [][]float32
	norms  []float64
	pos    map[int]int // id -> slot in ids/vecs
	closed bool
}

// NewExactVectorStore creates an empty store for vectors of the given size.
func NewExactVectorStore(dims int) *ExactVectorStore {
	return &ExactVectorStore{
		dims: dims,
		pos:  make(map[int]int),
	}
}

// Add inserts vectors with their IDs; an existing ID keeps its slot and
// takes the new vector.
func (s *ExactVectorStore) Add(ctx context.Context, ids []int, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}
	for _, v := range vectors {
		if len(v) != s.dims {
			return dimensionMismatch(s.dims, len(v))
		}
	}

	for i, id := range ids {
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		norm := magnitude(vec)

		if p, exists := s.pos[id]; exists {
			s.vecs[p] = vec
			s.norms[p] = norm
			continue
		}
		s.pos[id] = len(s.ids)
		s.ids = append(s.ids, id)
		s.vecs = append(s.vecs, vec)
		s.norms = append(s.norms, norm)
	}
	return nil
}

// Search scores every stored vector against query and returns the top k.
func (s *ExactVectorStore) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errStoreClosed
	}
	if len(query) != s.dims {
		return nil, dimensionMismatch(s.dims, len(query))
	}
	if k <= 0 || len(s.ids) == 0 {
		return []*VectorResult{}, nil
	}

	qNorm := magnitude(query)
	results := make([]*VectorResult, len(s.ids))
	for i, id := range s.ids {
		results[i] = &VectorResult{ID: id, Score: cosine(query, s.vecs[i], qNorm, s.norms[i])}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Contains checks if ID exists.
func (s *ExactVectorStore) Contains(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pos[id]
	return ok && !s.closed
}

// Count returns number of vectors.
func (s *ExactVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return len(s.ids)
}

// Close releases the vectors. Closing twice is fine.
func (s *ExactVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.ids, s.vecs, s.norms = nil, nil, nil
	s.pos = map[int]int{}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero
// magnitude or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return cosine(a, b, magnitude(a), magnitude(b))
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
