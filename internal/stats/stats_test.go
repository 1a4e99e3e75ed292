package stats

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestRecordAndSummary(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 4; i++ {
		if err := s.RecordReview("Vocabulary", i%2 == 0); err != nil {
			t.Fatalf("RecordReview failed: %v", err)
		}
	}
	if err := s.RecordGeneration("Vocabulary", 5); err != nil {
		t.Fatalf("RecordGeneration failed: %v", err)
	}
	if err := s.RecordFailure("Vocabulary"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	sum, err := s.Summary("Vocabulary")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Reviews != 4 || sum.CacheHits != 2 || sum.Generations != 1 ||
		sum.GeneratedPairs != 5 || sum.Failures != 1 {
		t.Errorf("Unexpected summary: %+v", sum)
	}
	if sum.HitRate() != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", sum.HitRate())
	}
}

func TestSummaryUnknownDeck(t *testing.T) {
	s := newTestStore(t)
	sum, err := s.Summary("Nothing")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Reviews != 0 || sum.HitRate() != 0 {
		t.Errorf("Unknown deck should yield zero summary, got %+v", sum)
	}
}

func TestAllOrdered(t *testing.T) {
	s := newTestStore(t)
	s.RecordReview("Zeta", false)
	s.RecordReview("Alpha", true)

	all, err := s.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 || all[0].Deck != "Alpha" || all[1].Deck != "Zeta" {
		t.Errorf("Expected ordered decks, got %+v", all)
	}
}

func TestRenderHTML(t *testing.T) {
	s := newTestStore(t)
	s.RecordReview("Vocabulary", true)
	s.RecordGeneration("Vocabulary", 3)

	html, err := s.RenderHTML()
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	for _, want := range []string{"Vocabulary", "牌组", "<table"} {
		if !strings.Contains(html, want) {
			t.Errorf("RenderHTML missing %q:\n%s", want, html)
		}
	}
}

func TestDeckRecorder(t *testing.T) {
	s := newTestStore(t)
	rec := s.ForDeck("Deck")
	rec.RecordGeneration(4)
	rec.RecordFailure()

	sum, _ := s.Summary("Deck")
	if sum.Generations != 1 || sum.GeneratedPairs != 4 || sum.Failures != 1 {
		t.Errorf("Unexpected summary: %+v", sum)
	}
}
