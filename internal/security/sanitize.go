// Package security provides input hygiene for poster requests: free-text
// sanitizing and decoding of uploaded photo data URIs.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the longest free-text value kept after sanitizing, in runes.
const MaxTextLength = 1000

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	scriptScheme  = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+=`)
)

// Sanitize strips angle brackets, javascript: schemes and inline event
// handler attributes, trims whitespace and truncates to MaxTextLength.
// Passes repeat until nothing changes, so removing one pattern can never
// splice together another ("javajavascript:script:" comes out clean) and
// Sanitize(Sanitize(s)) == Sanitize(s) for every s.
func Sanitize(s string) string {
	for {
		next := sanitizeOnce(s)
		if next == s {
			return next
		}
		s = next
	}
}

// Every pass that changes its input makes it strictly shorter.
func sanitizeOnce(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = scriptScheme.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = truncateRunes(s, MaxTextLength)
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Truncate shortens s to n runes, appending "..." when anything was cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return truncateRunes(s, n) + "..."
}
