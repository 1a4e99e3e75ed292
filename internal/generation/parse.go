package generation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit even when asked for raw JSON.
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParsePairs extracts sentence pairs from a model response body. Malformed
// individual pairs are logged and skipped; a "sentences" value that is not a
// list yields an empty result rather than an error, so a confused model
// response degrades to a cache miss instead of a hard failure.
func ParsePairs(content string) ([]sentence.Pair, error) {
	body := stripCodeFence(content)
	if body == "" {
		return nil, fmt.Errorf("empty response body")
	}

	var envelope struct {
		Sentences json.RawMessage `json:"sentences"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if len(envelope.Sentences) == 0 {
		return nil, nil
	}

	var rawPairs []json.RawMessage
	if err := json.Unmarshal(envelope.Sentences, &rawPairs); err != nil {
		slog.Warn("sentences field is not a list", "value", string(envelope.Sentences))
		return nil, nil
	}

	pairs := make([]sentence.Pair, 0, len(rawPairs))
	for i, raw := range rawPairs {
		var p sentence.Pair
		if err := json.Unmarshal(raw, &p); err != nil {
			slog.Warn("skipping malformed sentence pair", "index", i, "error", err)
			continue
		}
		if strings.TrimSpace(p.Sentence) == "" || strings.TrimSpace(p.Translation) == "" {
			slog.Warn("skipping empty sentence pair", "index", i)
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
