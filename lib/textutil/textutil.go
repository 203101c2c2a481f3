// Package textutil holds the text normalization used to collapse the
// many spellings of the same avatar or product name onto one key.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// DefaultStripSymbols are removed from keys before comparison, they
// carry no meaning in product or avatar names.
const DefaultStripSymbols = "・、。「」『』【】()()[]~~-_!!??::"

// Fold collapses visually or semantically equivalent strings onto one
// key: Unicode compatibility folding (full-width ascii, half-width
// katakana and the like), case folding, whitespace collapsing and
// stripping of the given symbol set.
func Fold(s string, stripSymbols string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, "")
	if stripSymbols != "" {
		s = strings.Map(func(r rune) rune {
			if strings.ContainsRune(stripSymbols, r) {
				return -1
			}
			return r
		}, s)
	}
	return s
}

// CollapseWhitespace replaces any run of whitespace with one space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Excerpt truncates to at most `limit` runes, appending an ellipsis
// when anything was cut off.
func Excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

var nonSlugRunes = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)
var slugSeparators = regexp.MustCompile(`[\s_-]+`)

// Slug produces a url-safe fragment of at most 50 runes.
func Slug(s string) string {
	slug := strings.ToLower(s)
	slug = nonSlugRunes.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if runes := []rune(slug); len(runes) > 50 {
		slug = strings.TrimRight(string(runes[:50]), "-")
	}
	if slug == "" {
		return "unknown"
	}
	return slug
}
