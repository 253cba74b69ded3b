// Package slug turns display names into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases name, drops apostrophes and joins the remaining words
// with hyphens, so "men's clothing" becomes "mens-clothing".
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Matches reports whether value names the same thing as name, either
// verbatim or by slug.
func Matches(name, value string) bool {
	return name == value || Generate(name) == value
}
