package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWStore implements VectorStore on a coder/hnsw graph.
// The graph only proposes candidates; every candidate is rescored with exact
// cosine similarity so scores mean the same as with ExactVectorStore. Zero
// vectors cannot be placed in a cosine graph and are kept aside; they always
// score 0. Level assignment uses a seeded generator, so the same insertion
// sequence always builds the same graph.
type HNSWStore struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config VectorStoreConfig

	vectors map[int][]float32 // id -> vector as added
	keyOf   map[int]uint64    // id -> live graph key
	idOf    map[uint64]int    // live graph key -> id
	order   map[int]int       // id -> first insertion rank, for tie breaking
	nextKey uint64

	closed bool
}

// NewHNSWStore creates a new HNSW-based vector store.
func NewHNSWStore(cfg VectorStoreConfig) (*HNSWStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.M == 0 {
		cfg.M = 16 // coder/hnsw default recommendation
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25
	graph.Rng = rand.New(rand.NewSource(cfg.Seed))

	return &HNSWStore{
		graph:   graph,
		config:  cfg,
		vectors: make(map[int][]float32),
		keyOf:   make(map[int]uint64),
		idOf:    make(map[uint64]int),
		order:   make(map[int]int),
	}, nil
}

// Add inserts vectors with their IDs.
// Replacing an ID orphans its old graph node instead of deleting it, which
// avoids a coder/hnsw bug when the last node of a layer is removed.
func (s *HNSWStore) Add(ctx context.Context, ids []int, vectors [][]float32) error {
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
		if len(v) != s.config.Dimensions {
			return dimensionMismatch(s.config.Dimensions, len(v))
		}
	}

	for i, id := range ids {
		if key, exists := s.keyOf[id]; exists {
			delete(s.idOf, key)
			delete(s.keyOf, id)
		}
		if _, seen := s.order[id]; !seen {
			s.order[id] = len(s.order)
		}

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		s.vectors[id] = vec

		if magnitude(vec) == 0 {
			continue
		}
		key := s.nextKey
		s.nextKey++
		s.graph.Add(hnsw.MakeNode(key, vec))
		s.keyOf[id] = key
		s.idOf[key] = id
	}
	return nil
}

// Search returns up to k approximate nearest neighbours, best first.
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errStoreClosed
	}
	if len(query) != s.config.Dimensions {
		return nil, dimensionMismatch(s.config.Dimensions, len(query))
	}
	if k <= 0 || s.graph.Len() == 0 || magnitude(query) == 0 {
		return []*VectorResult{}, nil
	}

	// Orphaned nodes can crowd out live ones, so ask for extra.
	want := k + (s.graph.Len() - len(s.idOf))
	if want < s.config.EfSearch {
		want = s.config.EfSearch
	}
	nodes := s.graph.Search(query, want)

	results := make([]*VectorResult, 0, len(nodes))
	for _, node := range nodes {
		id, live := s.idOf[node.Key]
		if !live {
			continue
		}
		results = append(results, &VectorResult{ID: id, Score: Cosine(query, s.vectors[id])})
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return s.order[results[a].ID] < s.order[results[b].ID]
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Contains checks if ID exists.
func (s *HNSWStore) Contains(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	_, exists := s.vectors[id]
	return exists
}

// Count returns number of vectors.
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}
	return len(s.vectors)
}

// HNSWStats describes the graph behind an HNSWStore.
type HNSWStats struct {
	Vectors    int // Stored vectors, including zero vectors
	GraphNodes int // Nodes in the graph, including orphans
	Orphans    int // Graph nodes replaced by a later Add
}

// Stats returns graph statistics.
func (s *HNSWStore) Stats() HNSWStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return HNSWStats{}
	}
	nodes := s.graph.Len()
	return HNSWStats{
		Vectors:    len(s.vectors),
		GraphNodes: nodes,
		Orphans:    nodes - len(s.idOf),
	}
}

// Close releases the graph. Closing twice is fine.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.graph = hnsw.NewGraph[uint64]()
	s.vectors = map[int][]float32{}
	s.keyOf = map[int]uint64{}
	s.idOf = map[uint64]int{}
	return nil
}
