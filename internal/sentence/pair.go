package sentence

import (
	"encoding/json"
	"fmt"
)

// Pair is one generated example sentence together with its translation.
// Pairs are immutable once produced by the generation client.
type Pair struct {
	Sentence    string
	Translation string
}

// MarshalJSON encodes the pair in the two-element array form
// ["sentence", "translation"] used by both the API payload and the
// on-disk cache.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Sentence, p.Translation})
}

// UnmarshalJSON decodes the two-element array form. Anything that is not
// exactly two strings is rejected.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("sentence pair must be a string array: %w", err)
	}
	if len(arr) != 2 {
		return fmt.Errorf("sentence pair must have exactly 2 elements, got %d", len(arr))
	}
	p.Sentence = arr[0]
	p.Translation = arr[1]
	return nil
}

// EncodePairs serializes a pair list for cache storage.
func EncodePairs(pairs []Pair) (string, error) {
	data, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("failed to encode sentence pairs: %w", err)
	}
	return string(data), nil
}

// DecodePairs parses a stored pair list. Malformed entries fail the whole
// decode; the caller decides whether to drop the cache row.
func DecodePairs(data string) ([]Pair, error) {
	var pairs []Pair
	if err := json.Unmarshal([]byte(data), &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode sentence pairs: %w", err)
	}
	return pairs, nil
}
