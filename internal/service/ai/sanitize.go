package ai

import (
	"regexp"
	"strings"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/util"
)

var controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// sanitizeInput strips control characters and collapses whitespace before
// text is embedded in a prompt. The clamp counts runes, not bytes, so a
// Hebrew query is never cut mid-character.
func sanitizeInput(input string) string {
	withoutControl := controlCharsPattern.ReplaceAllString(input, " ")
	normalized := whitespacePattern.ReplaceAllString(withoutControl, " ")
	trimmed := strings.TrimSpace(normalized)

	if trimmed == "" {
		return ""
	}

	return util.TruncateString(trimmed, constants.InputLimits.MaxQueryLength)
}
