// Package normalize maps raw extracted prompt text to the canonical forms
// used for duplicate detection: a display form (Normalize) and a comparison
// key (Canonicalize). All functions are pure; they never fail and always
// return a string, possibly empty.
package normalize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	greetingEcho  = regexp.MustCompile(`(?i)^you said[:,]?\s*`)

	// Trailing multi-part markers: "(2/2)", "2/2", "part 2 of 2".
	parenPartMarker = regexp.MustCompile(`(?i)\s*\(\s*\d+\s*/\s*\d+\s*\)\s*$`)
	barePartMarker  = regexp.MustCompile(`(?i)\s*\b\d+\s*/\s*\d+\s*$`)
	wordPartMarker  = regexp.MustCompile(`(?i)\s*\bpart\s*\d+\s*of\s*\d+\s*$`)

	trailingPunct = regexp.MustCompile("[\\s\\-–—·.,;:!]+$")
	innerPunct    = regexp.MustCompile("[.,!?;:()\\[\\]{}\"'`]+")
)

// Normalize collapses whitespace runs to single spaces, trims, and strips a
// leading "you said:" echo prefix some renderers prepend to user messages.
func Normalize(raw string) string {
	t := whitespaceRun.ReplaceAllString(raw, " ")
	t = strings.TrimSpace(t)
	t = greetingEcho.ReplaceAllString(t, "")
	return t
}

// Canonicalize reduces normalized text to the key used for exact and fuzzy
// duplicate matching: lower-cased, trailing multi-part markers removed,
// punctuation stripped, whitespace collapsed.
func Canonicalize(text string) string {
	t := strings.ToLower(Normalize(text))
	t = parenPartMarker.ReplaceAllString(t, "")
	t = barePartMarker.ReplaceAllString(t, "")
	t = wordPartMarker.ReplaceAllString(t, "")
	t = trailingPunct.ReplaceAllString(t, "")
	t = innerPunct.ReplaceAllString(t, "")
	t = whitespaceRun.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
