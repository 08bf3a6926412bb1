// Package textnorm normalizes raw thesis titles before encoding and
// keyword matching. Normalize is deterministic and idempotent: applying
// it twice yields the same string, so already-normalized input passes
// through unchanged.
package textnorm

import (
	"regexp"
	"strings"
)

// Common misspellings and truncations seen in the title corpus. Each
// pattern anchors on a word boundary so replacements do not re-trigger
// on their own output.
var replacements = []struct {
	re  *regexp.Regexp
	sub string
}{
	{regexp.MustCompile(`na[iï]ve?\s*ba[iy]y?e?s?\b`), "naive bayes"},
	{regexp.MustCompile(`augment(ed)?\s*realit[iy]\b`), "augmented reality"},
	{regexp.MustCompile(`virtual\s*realit[iy]\b`), "virtual reality"},
	{regexp.MustCompile(`\bkomput\b`), "komputer"},
	{regexp.MustCompile(`\bberbasi\b`), "berbasis"},
	{regexp.MustCompile(`\bteknolog\b`), "teknologi"},
	{regexp.MustCompile(`\bui\s*/\s*ux\b|\buiux\b`), "ui ux"},
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize lowercases a title, fixes known misspellings, and collapses
// runs of whitespace.
func Normalize(title string) string {
	s := strings.ToLower(title)
	for _, r := range replacements {
		s = r.re.ReplaceAllString(s, r.sub)
	}
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
