package keyword

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	soundPattern = regexp.MustCompile(`\[[^\]]*\]`)
)

// Normalize cleans a raw card field value down to the vocabulary keyword
// used as cache and queue identity. It strips HTML tags, removes bracketed
// markers such as [sound:...], decodes HTML entities and trims whitespace.
func Normalize(raw string) string {
	s := tagPattern.ReplaceAllString(raw, "")
	s = soundPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// NormalizeAll normalizes a list of raw field values, dropping entries that
// normalize to the empty string and deduplicating while preserving order.
func NormalizeAll(raws []string) []string {
	seen := make(map[string]struct{}, len(raws))
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		kw := Normalize(raw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
