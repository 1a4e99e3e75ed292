package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/socialismbuilder/ContextFlow/internal/config"
	"github.com/socialismbuilder/ContextFlow/internal/sentence"
	"github.com/socialismbuilder/ContextFlow/internal/testutil"
)

func writeWordList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write word list: %v", err)
	}
	return path
}

func TestReadWordList(t *testing.T) {
	path := writeWordList(t, `# vocabulary for unit 3
book

  apple
book
<b>pear</b>
`)

	words, err := ReadWordList(path)
	if err != nil {
		t.Fatalf("ReadWordList failed: %v", err)
	}

	want := []string{"book", "apple", "pear"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("Expected %v, got %v", want, words)
	}
}

func TestReadWordListMissingFile(t *testing.T) {
	if _, err := ReadWordList("/nonexistent/words.txt"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRun(t *testing.T) {
	gen := &testutil.StubGenerator{}
	cache := testutil.NewMemCache()
	cache.Merge("cached", []sentence.Pair{{Sentence: "s", Translation: "t"}})

	var out bytes.Buffer
	p := NewProcessor(gen, cache, config.Default().Learner(), &out)

	err := p.Run(context.Background(), []string{"cached", "fresh"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if calls := gen.Calls(); len(calls) != 1 || calls[0] != "fresh" {
		t.Errorf("Cached words must be skipped, generator called with %v", calls)
	}
	if !cache.Has("fresh") {
		t.Error("Generated pairs should be cached")
	}
	if !strings.Contains(out.String(), "cached, skipped") {
		t.Errorf("Progress output missing skip notice:\n%s", out.String())
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	gen := &testutil.StubGenerator{FailFor: map[string]bool{"bad": true}}
	cache := testutil.NewMemCache()

	var out bytes.Buffer
	p := NewProcessor(gen, cache, config.Default().Learner(), &out)

	err := p.Run(context.Background(), []string{"bad", "good"})
	if err == nil {
		t.Fatal("Expected error summarizing failures")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !cache.Has("good") {
		t.Error("Words after a failure must still be processed")
	}
}

func TestRunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(&testutil.StubGenerator{}, testutil.NewMemCache(), config.Default().Learner(), &bytes.Buffer{})
	if err := p.Run(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
