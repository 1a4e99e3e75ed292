package cache

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

func newTestCache(t *testing.T) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, path
}

func somePairs(n int) []sentence.Pair {
	pairs := make([]sentence.Pair, n)
	for i := range pairs {
		pairs[i] = sentence.Pair{
			Sentence:    "sentence " + string(rune('a'+i)),
			Translation: "译文 " + string(rune('a'+i)),
		}
	}
	return pairs
}

func TestMergeAndGet(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Merge("book", somePairs(2)); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	pairs, ok := c.Get("book")
	if !ok || len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d (ok=%v)", len(pairs), ok)
	}

	if err := c.Merge("book", somePairs(3)); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	pairs, _ = c.Get("book")
	if len(pairs) != 5 {
		t.Errorf("Merge should append, expected 5 pairs, got %d", len(pairs))
	}
}

func TestPopOneConsumesInOrder(t *testing.T) {
	c, _ := newTestCache(t)

	original := somePairs(3)
	if err := c.Merge("book", original); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		pair, remaining, ok := c.PopOne("book")
		if !ok {
			t.Fatalf("PopOne %d returned ok=false", i)
		}
		if pair != original[i] {
			t.Errorf("PopOne %d = %+v, want %+v", i, pair, original[i])
		}
		if remaining != 2-i {
			t.Errorf("PopOne %d remaining = %d, want %d", i, remaining, 2-i)
		}
	}

	if _, _, ok := c.PopOne("book"); ok {
		t.Error("Expected ok=false after all pairs consumed")
	}
	if c.Has("book") {
		t.Error("Entry should be removed once emptied")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.Merge("book", somePairs(3)); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if _, _, ok := c.PopOne("book"); !ok {
		t.Fatal("PopOne failed")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen simulates a restart: the popped pair must stay gone.
	c2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer c2.Close()

	pairs, ok := c2.Get("book")
	if !ok || len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs after reopen, got %d (ok=%v)", len(pairs), ok)
	}
	if pairs[0] != somePairs(3)[1] {
		t.Errorf("Reopened cache returned wrong head pair: %+v", pairs[0])
	}
}

func TestEmptiedEntryGoneAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c.Merge("solo", somePairs(1))
	c.PopOne("solo")
	c.Close()

	c2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer c2.Close()
	if c2.Has("solo") {
		t.Error("Emptied entry must not reappear after reopen")
	}
}

func TestPopOneLogsPersistFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	c, err := Open(path, logger)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.Merge("book", somePairs(2)); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	// Kill the database underneath the cache so the write must fail.
	c.DB().Close()

	pair, remaining, ok := c.PopOne("book")
	if !ok || remaining != 1 {
		t.Fatalf("PopOne should still serve from memory, got ok=%v remaining=%d", ok, remaining)
	}
	if pair != somePairs(2)[0] {
		t.Errorf("Unexpected pair: %+v", pair)
	}
	if !strings.Contains(logBuf.String(), "failed to persist consumed cache entry") {
		t.Errorf("Persist failure should be logged, got:\n%s", logBuf.String())
	}
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(t)
	c.Merge("a", somePairs(1))
	c.Merge("b", somePairs(1))

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}
}

func TestKeys(t *testing.T) {
	c, _ := newTestCache(t)
	c.Merge("alpha", somePairs(1))
	c.Merge("beta", somePairs(1))

	keys := c.Keys()
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %v", keys)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			kw := "word" + string(rune('a'+n))
			for j := 0; j < 10; j++ {
				c.Merge(kw, somePairs(1))
				c.Get(kw)
				c.PopOne(kw)
			}
		}(i)
	}
	wg.Wait()

	// Every goroutine merged and popped the same count; nothing remains.
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after balanced merge/pop, got %d", c.Len())
	}
}
