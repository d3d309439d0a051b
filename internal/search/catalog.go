package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
)

// BuildFunc builds an engine over one chapter, or over the whole collection
// when chapter is 0.
type BuildFunc func(ctx context.Context, chapter int) (*Engine, error)

// Catalog keeps one Holder per chapter scope. Scopes are built on first use
// and rebuilt together by Reload.
type Catalog struct {
	build   BuildFunc
	mu      sync.Mutex
	holders map[int]*Holder
}

// NewCatalog creates an empty catalog.
func NewCatalog(build BuildFunc) *Catalog {
	return &Catalog{build: build, holders: make(map[int]*Holder)}
}

// Holder returns the holder for chapter, building its engine on first use.
// A failed build is not cached.
func (c *Catalog) Holder(ctx context.Context, chapter int) (*Holder, error) {
	if chapter < 0 {
		return nil, aerrors.Newf(aerrors.ErrCodeInvalidInput, "chapter must be >= 0, got %d", chapter).
			WithDetail("chapter", fmt.Sprint(chapter))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.holders[chapter]; ok {
		return h, nil
	}
	e, err := c.build(ctx, chapter)
	if err != nil {
		return nil, err
	}
	h := NewHolder(e)
	c.holders[chapter] = h
	return h, nil
}

// Search runs query against the engine for chapter.
func (c *Catalog) Search(ctx context.Context, chapter int, query string, topK int) ([]*SearchResult, error) {
	h, err := c.Holder(ctx, chapter)
	if err != nil {
		return nil, err
	}
	return h.Search(ctx, query, topK)
}

// Reload rebuilds every scope built so far. Scopes whose rebuild fails keep
// their current engine; the failures are joined into the returned error.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	holders := make(map[int]*Holder, len(c.holders))
	for ch, h := range c.holders {
		holders[ch] = h
	}
	c.mu.Unlock()

	var errs []error
	for _, ch := range sortedKeys(holders) {
		chapter := ch
		err := holders[ch].Rebuild(ctx, func(ctx context.Context) (*Engine, error) {
			return c.build(ctx, chapter)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("chapter %d: %w", chapter, err))
		}
	}
	return errors.Join(errs...)
}

// Scopes returns the chapters built so far, sorted. 0 is the whole collection.
func (c *Catalog) Scopes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.holders)
}

func sortedKeys(m map[int]*Holder) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
