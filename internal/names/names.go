// Package names normalizes person names for search and comparison.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Normalize folds a name for comparison: no diacritics, lowercase, dashes
// treated as spaces, runs of whitespace collapsed.
func Normalize(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

// Matches reports whether a person name matches a search query after both
// sides are normalized. An empty query matches everything.
func Matches(name, query string) bool {
	query = Normalize(query)
	if query == "" {
		return true
	}
	return strings.Contains(Normalize(name), query)
}
