package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/socialismbuilder/ContextFlow/internal/config"
	"github.com/socialismbuilder/ContextFlow/internal/keyword"
	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

// Generator produces sentence pairs for a keyword.
type Generator interface {
	Generate(ctx context.Context, kw string, learner config.Learner) ([]sentence.Pair, error)
}

// Cache is the subset of the sentence cache the processor needs.
type Cache interface {
	Has(kw string) bool
	Merge(kw string, pairs []sentence.Pair) error
}

// ReadWordList reads keywords from a file, one per line. Blank lines and
// lines starting with # are skipped; duplicates are dropped.
func ReadWordList(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	defer f.Close()

	var raws []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raws = append(raws, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return keyword.NormalizeAll(raws), nil
}

// Processor prefetches sentence pairs for a list of keywords.
type Processor struct {
	gen     Generator
	cache   Cache
	learner config.Learner
	out     io.Writer
}

// NewProcessor creates a Processor writing progress to out.
func NewProcessor(gen Generator, cache Cache, learner config.Learner, out io.Writer) *Processor {
	if out == nil {
		out = os.Stdout
	}
	return &Processor{gen: gen, cache: cache, learner: learner, out: out}
}

// Run generates and caches pairs for every word not already cached. It
// keeps going past individual failures and reports how many words failed.
func (p *Processor) Run(ctx context.Context, words []string) error {
	var failed []string

	for i, word := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.cache.Has(word) {
			fmt.Fprintf(p.out, "[%d/%d] %s (cached, skipped)\n", i+1, len(words), word)
			continue
		}

		pairs, err := p.gen.Generate(ctx, word, p.learner)
		if err != nil {
			fmt.Fprintf(p.out, "[%d/%d] %s FAILED: %v\n", i+1, len(words), word, err)
			failed = append(failed, word)
			continue
		}
		if len(pairs) == 0 {
			fmt.Fprintf(p.out, "[%d/%d] %s FAILED: no usable pairs\n", i+1, len(words), word)
			failed = append(failed, word)
			continue
		}
		if err := p.cache.Merge(word, pairs); err != nil {
			return fmt.Errorf("failed to cache %q: %w", word, err)
		}
		fmt.Fprintf(p.out, "[%d/%d] %s (%d pairs)\n", i+1, len(words), word, len(pairs))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d words failed: %s",
			len(failed), len(words), strings.Join(failed, ", "))
	}
	return nil
}
