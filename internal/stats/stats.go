package stats

import (
	"database/sql"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Store accumulates per-deck usage counters. It shares the sqlite handle of
// the sentence cache so everything lives in one file.
type Store struct {
	db *sql.DB
}

// Summary is the counter set for one deck.
type Summary struct {
	Deck           string
	Reviews        int
	CacheHits      int
	Generations    int
	GeneratedPairs int
	Failures       int
}

// HitRate returns the fraction of reviews served straight from the cache.
func (s Summary) HitRate() float64 {
	if s.Reviews == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Reviews)
}

// NewStore creates the statistics table if needed.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS review_stats (
			deck            TEXT PRIMARY KEY,
			reviews         INTEGER NOT NULL DEFAULT 0,
			cache_hits      INTEGER NOT NULL DEFAULT 0,
			generations     INTEGER NOT NULL DEFAULT 0,
			generated_pairs INTEGER NOT NULL DEFAULT 0,
			failures        INTEGER NOT NULL DEFAULT 0,
			updated_at      TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) bump(deck string, column string, delta int) error {
	query := fmt.Sprintf(`
		INSERT INTO review_stats (deck, %s, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(deck) DO UPDATE SET
			%s = %s + excluded.%s,
			updated_at = excluded.updated_at
	`, column, column, column, column)
	if _, err := s.db.Exec(query, deck, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// RecordReview counts one rendered review and whether the sentence came
// straight from the cache.
func (s *Store) RecordReview(deck string, cacheHit bool) error {
	if err := s.bump(deck, "reviews", 1); err != nil {
		return err
	}
	if cacheHit {
		return s.bump(deck, "cache_hits", 1)
	}
	return nil
}

// RecordGeneration counts one successful generation call and the number of
// pairs it yielded.
func (s *Store) RecordGeneration(deck string, pairCount int) error {
	if err := s.bump(deck, "generations", 1); err != nil {
		return err
	}
	return s.bump(deck, "generated_pairs", pairCount)
}

// RecordFailure counts one failed generation call.
func (s *Store) RecordFailure(deck string) error {
	return s.bump(deck, "failures", 1)
}

// Summary returns the counters for one deck. A deck with no history returns
// a zero Summary.
func (s *Store) Summary(deck string) (Summary, error) {
	sum := Summary{Deck: deck}
	err := s.db.QueryRow(`
		SELECT reviews, cache_hits, generations, generated_pairs, failures
		FROM review_stats WHERE deck = ?
	`, deck).Scan(&sum.Reviews, &sum.CacheHits, &sum.Generations, &sum.GeneratedPairs, &sum.Failures)
	if err == sql.ErrNoRows {
		return sum, nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read stats: %w", err)
	}
	return sum, nil
}

// All returns the counters for every deck, ordered by deck name.
func (s *Store) All() ([]Summary, error) {
	rows, err := s.db.Query(`
		SELECT deck, reviews, cache_hits, generations, generated_pairs, failures
		FROM review_stats ORDER BY deck
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Deck, &sum.Reviews, &sum.CacheHits,
			&sum.Generations, &sum.GeneratedPairs, &sum.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

var statsTmpl = template.Must(template.New("stats").Parse(`<table class="contextflow-stats">
  <tr><th>牌组</th><th>复习次数</th><th>缓存命中</th><th>生成次数</th><th>生成例句</th><th>失败次数</th></tr>
{{- range .}}
  <tr><td>{{.Deck}}</td><td>{{.Reviews}}</td><td>{{.CacheHits}}</td><td>{{.Generations}}</td><td>{{.GeneratedPairs}}</td><td>{{.Failures}}</td></tr>
{{- end}}
</table>`))

// RenderHTML renders all deck summaries as an HTML table for the stats view.
func (s *Store) RenderHTML() (string, error) {
	all, err := s.All()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := statsTmpl.Execute(&b, all); err != nil {
		return "", fmt.Errorf("failed to render stats: %w", err)
	}
	return b.String(), nil
}

// DeckRecorder adapts the store to a single deck so the worker pool can
// record outcomes without knowing deck names.
type DeckRecorder struct {
	store *Store
	deck  string
}

// ForDeck returns a recorder bound to deck.
func (s *Store) ForDeck(deck string) *DeckRecorder {
	return &DeckRecorder{store: s, deck: deck}
}

// RecordGeneration implements the worker recorder.
func (r *DeckRecorder) RecordGeneration(pairCount int) {
	r.store.RecordGeneration(r.deck, pairCount)
}

// RecordFailure implements the worker recorder.
func (r *DeckRecorder) RecordFailure() {
	r.store.RecordFailure(r.deck)
}
