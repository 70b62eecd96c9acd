package agent

import (
	"regexp"
	"strings"
)

var (
	smartPunctRE = regexp.MustCompile("[‘’“”–—]")
	asciiPunctRE = regexp.MustCompile(`[!?,.;:()\[\]"'` + "`" + `-]`)
	spaceRunRE   = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes raw message text: lowercase, smart quotes and
// dashes folded, punctuation spaced out except "@" so mentions survive,
// whitespace collapsed. Emoji and non-ASCII letters pass through untouched.
// The function is pure, total, and idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := strings.ToLower(strings.TrimSpace(raw))
	text = smartPunctRE.ReplaceAllString(text, " ")
	text = asciiPunctRE.ReplaceAllString(text, " ")
	text = spaceRunRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Tokenize splits normalized text into whitespace-delimited tokens.
// Mentions keep their "@" prefix.
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}
