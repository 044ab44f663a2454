package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketedPattern = regexp.MustCompile(`\(.*?\)|\[.*?\]|\{.*?\}|<.*?>`)
	// Hangul syllables are U+AC00 through U+D7A3.
	disallowedPattern = regexp.MustCompile(`[^0-9a-z\x{AC00}-\x{D7A3}\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a title, artist, or filename body into the form
// used for comparisons. Bracketed annotations such as "(Live)" or
// "[Official Video]" are removed, and anything outside ASCII letters and
// digits, Hangul syllables, and whitespace is dropped.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	s = bracketedPattern.ReplaceAllString(s, " ")
	s = disallowedPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizePtr treats a nil value as an empty string.
func NormalizePtr(s *string) string {
	if s == nil {
		return ""
	}
	return Normalize(*s)
}
