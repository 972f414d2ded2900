package registry

import (
	"strings"
	"unicode"
)

// NormalizeAlias implements the registry's alias-normalization pipeline:
// case-fold, trim, collapse whitespace, map '-', '/', and space to '_',
// strip non-word characters (Unicode-aware), collapse consecutive
// underscores, trim leading/trailing underscores. The function is pure
// and deterministic: the same input always normalizes to the same output
// regardless of platform locale, because it operates on Unicode rune
// properties rather than the current locale's case rules.
func NormalizeAlias(s string) string {
	s = strings.TrimSpace(s)
	s = caseFold(s)
	s = collapseWhitespace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '-' || r == '/' || r == ' ':
			b.WriteRune('_')
		case isWordRune(r):
			b.WriteRune(r)
		default:
			// strip
		}
	}
	out := b.String()
	out = collapseUnderscores(out)
	return strings.Trim(out, "_")
}

// caseFold lowercases s using Unicode's case mapping tables, which are
// stable across platforms unlike a locale-dependent toLower.
func caseFold(s string) string {
	return strings.ToLower(s)
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevUnderscore := false
	for _, r := range s {
		if r == '_' {
			if !prevUnderscore {
				b.WriteRune('_')
			}
			prevUnderscore = true
			continue
		}
		prevUnderscore = false
		b.WriteRune(r)
	}
	return b.String()
}

// isWordRune reports whether r belongs to a Unicode letter, digit, mark, or
// is the underscore itself.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}
