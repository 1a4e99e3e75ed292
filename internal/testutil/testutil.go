// Package testutil provides shared fakes and helpers for tests.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/socialismbuilder/ContextFlow/internal/cache"
	"github.com/socialismbuilder/ContextFlow/internal/config"
	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

// NewTestCache opens a sentence cache backed by a temporary database that
// is cleaned up with the test.
func NewTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open test cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// StubGenerator is a Generator that fabricates one pair per call. Keywords
// in FailFor return an error instead. When Block is set, Generate waits for
// it to be closed or the context to end.
type StubGenerator struct {
	FailFor map[string]bool
	Block   chan struct{}

	mu    sync.Mutex
	calls []string
}

// Generate implements the generator interface of the worker and batch
// packages.
func (g *StubGenerator) Generate(ctx context.Context, keyword string, learner config.Learner) ([]sentence.Pair, error) {
	if g.Block != nil {
		select {
		case <-g.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.mu.Lock()
	g.calls = append(g.calls, keyword)
	fail := g.FailFor[keyword]
	g.mu.Unlock()
	if fail {
		return nil, errors.New("generation blew up")
	}
	return []sentence.Pair{{Sentence: keyword + " sentence", Translation: "译文"}}, nil
}

// Called reports whether Generate completed for keyword.
func (g *StubGenerator) Called(keyword string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, kw := range g.calls {
		if kw == keyword {
			return true
		}
	}
	return false
}

// Calls returns the keywords Generate was called with, in order.
func (g *StubGenerator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

// MemCache is an in-memory stand-in for the sentence cache.
type MemCache struct {
	mu      sync.Mutex
	entries map[string][]sentence.Pair
}

// NewMemCache returns an empty MemCache.
func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[string][]sentence.Pair)}
}

// Merge appends pairs under keyword.
func (c *MemCache) Merge(keyword string, pairs []sentence.Pair) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[keyword] = append(c.entries[keyword], pairs...)
	return nil
}

// Has reports whether keyword has any pairs.
func (c *MemCache) Has(keyword string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[keyword]) > 0
}

// Get returns the pairs stored for keyword.
func (c *MemCache) Get(keyword string) []sentence.Pair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[keyword]
}
