package analyzer

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	slugDisallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
	slugHyphens    = regexp.MustCompile(`-+`)
)

// Normalize strips markup tags from rendered text, collapses whitespace runs
// to single spaces and trims the result. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = tagPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// Slugify derives the anchor id a static site generator assigns to a heading.
func Slugify(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugHyphens.ReplaceAllString(s, "-")
}
