package cache

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

// Cache is the persistent keyword-to-sentences store. All pairs live in an
// in-memory map guarded by a single mutex; every mutation is written to
// sqlite before the call returns, so a crash never loses acknowledged data.
type Cache struct {
	mu      sync.Mutex
	db      *sql.DB
	logger  *slog.Logger
	entries map[string][]sentence.Pair
}

// Open opens (or creates) the cache database at path and loads all entries
// into memory. logger may be nil.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	c := &Cache{db: db, logger: logger, entries: make(map[string][]sentence.Pair)}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := c.loadAll(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS sentence_cache (
			keyword        TEXT PRIMARY KEY,
			sentence_pairs TEXT NOT NULL,
			updated_at     TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

func (c *Cache) loadAll() error {
	rows, err := c.db.Query(`SELECT keyword, sentence_pairs FROM sentence_cache`)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var keyword, encoded string
		if err := rows.Scan(&keyword, &encoded); err != nil {
			return fmt.Errorf("failed to scan cache row: %w", err)
		}
		pairs, err := sentence.DecodePairs(encoded)
		if err != nil {
			// A corrupt row is dropped rather than poisoning the cache.
			c.logger.Warn("dropping corrupt cache entry", "keyword", keyword, "error", err)
			continue
		}
		if len(pairs) > 0 {
			c.entries[keyword] = pairs
		}
	}
	return rows.Err()
}

// persist writes the current pairs for keyword to sqlite, deleting the row
// when the list is empty. Caller holds the mutex.
func (c *Cache) persist(keyword string) error {
	pairs := c.entries[keyword]
	if len(pairs) == 0 {
		if _, err := c.db.Exec(`DELETE FROM sentence_cache WHERE keyword = ?`, keyword); err != nil {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
		return nil
	}
	encoded, err := sentence.EncodePairs(pairs)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	_, err = c.db.Exec(`
		INSERT INTO sentence_cache (keyword, sentence_pairs, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(keyword) DO UPDATE SET
			sentence_pairs = excluded.sentence_pairs,
			updated_at = excluded.updated_at
	`, keyword, encoded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Get returns a copy of the cached pairs for keyword.
func (c *Cache) Get(keyword string) ([]sentence.Pair, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pairs, ok := c.entries[keyword]
	if !ok {
		return nil, false
	}
	out := make([]sentence.Pair, len(pairs))
	copy(out, pairs)
	return out, true
}

// Has reports whether keyword has at least one cached pair.
func (c *Cache) Has(keyword string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[keyword]) > 0
}

// PopOne removes and returns the oldest cached pair for keyword, along with
// the number of pairs remaining. When the last pair is consumed the entry is
// removed entirely. The removal is durable before PopOne returns.
func (c *Cache) PopOne(keyword string) (sentence.Pair, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pairs := c.entries[keyword]
	if len(pairs) == 0 {
		return sentence.Pair{}, 0, false
	}

	pair := pairs[0]
	rest := pairs[1:]
	if len(rest) == 0 {
		delete(c.entries, keyword)
	} else {
		c.entries[keyword] = rest
	}
	if err := c.persist(keyword); err != nil {
		// Keep the in-memory pop; the next successful write repairs the row.
		c.logger.Error("failed to persist consumed cache entry",
			"keyword", keyword, "error", err)
	}
	return pair, len(rest), true
}

// Merge appends pairs to the entry for keyword, creating it if absent, and
// commits the result before returning.
func (c *Cache) Merge(keyword string, pairs []sentence.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[keyword] = append(c.entries[keyword], pairs...)
	return c.persist(keyword)
}

// Keys returns all keywords that currently have cached pairs.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of cached keywords.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry from memory and from sqlite.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]sentence.Pair)
	if _, err := c.db.Exec(`DELETE FROM sentence_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// DB exposes the underlying database handle so sibling stores (statistics)
// can share the same file.
func (c *Cache) DB() *sql.DB {
	return c.db
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
