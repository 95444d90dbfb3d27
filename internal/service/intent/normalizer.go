package intent

import (
	"regexp"
	"strings"
)

var (
	whitespacePattern    = regexp.MustCompile(`\s+`)
	trailingPunctPattern = regexp.MustCompile(`[.,!?;:]+$`)
)

// Normalize canonicalizes an utterance before scoring: trim, collapse
// whitespace runs, strip trailing punctuation, fix known typos. The
// result is stable: Normalize(Normalize(x)) == Normalize(x).
func (lib *Library) Normalize(text string) string {
	normalized := strings.TrimSpace(text)
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	normalized = trailingPunctPattern.ReplaceAllString(normalized, "")
	normalized = strings.TrimSpace(normalized)

	// typo keys are ordered longest-first so fixes never partially
	// overwrite each other
	for _, rule := range lib.typos {
		normalized = strings.ReplaceAll(normalized, rule.from, rule.to)
	}
	return normalized
}
