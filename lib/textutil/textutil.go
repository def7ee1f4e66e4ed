package textutil

import (
	"regexp"
	"strings"
)

var nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases s and strips every non-alphanumeric rune, so
// "PL-200" and "pl200" compare equal.
func Normalize(s string) string {
	return nonAlnumRegex.ReplaceAllString(strings.ToLower(s), "")
}

// ContainsFold reports whether substr occurs in s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ContainsNormalized reports whether the normalized form of substr
// occurs in the normalized form of s.
func ContainsNormalized(s, substr string) bool {
	sub := Normalize(substr)
	if sub == "" {
		return false
	}
	return strings.Contains(Normalize(s), sub)
}

// Slugify turns a title into a url path segment: lowercase, every run
// of non-alphanumeric characters collapsed to a single hyphen, leading
// and trailing hyphens trimmed.
func Slugify(s string) string {
	s = nonAlnumRegex.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
