package search

import (
	"context"
	"sync"
	"sync/atomic"
)

// Holder publishes the current Engine to concurrent readers and lets a
// single writer replace it. Searches in flight keep using the engine they
// loaded; a replaced engine is left to the garbage collector.
type Holder struct {
	current  atomic.Pointer[Engine]
	rebuild  sync.Mutex
	versions atomic.Uint64
}

// NewHolder creates a Holder serving e.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	h.current.Store(e)
	h.versions.Store(1)
	return h
}

// Engine returns the current engine.
func (h *Holder) Engine() *Engine {
	return h.current.Load()
}

// Version counts how many engines have been published, starting at 1.
func (h *Holder) Version() uint64 {
	return h.versions.Load()
}

// Swap publishes e and returns the engine it replaced.
func (h *Holder) Swap(e *Engine) *Engine {
	prev := h.current.Swap(e)
	h.versions.Add(1)
	return prev
}

// Rebuild builds a new engine and publishes it. Concurrent rebuilds are
// serialized. If build fails the current engine stays in place and the
// error is returned.
func (h *Holder) Rebuild(ctx context.Context, build func(context.Context) (*Engine, error)) error {
	h.rebuild.Lock()
	defer h.rebuild.Unlock()

	e, err := build(ctx)
	if err != nil {
		return err
	}
	h.Swap(e)
	return nil
}

// Search runs query against the current engine.
func (h *Holder) Search(ctx context.Context, query string, topK int) ([]*SearchResult, error) {
	return h.Engine().Search(ctx, query, topK)
}
