// Package naming derives generated type names from schema keys.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PascalCase drops runs of dashes, underscores and whitespace, upper-casing
// the rune that follows each run, then upper-cases the first rune. Other
// runes keep their case, so "groupName" becomes "GroupName" and "rich_text"
// becomes "RichText".
func PascalCase(input string) string {
	if input == "" {
		return ""
	}

	var out strings.Builder
	out.Grow(len(input))

	upperNext := false
	for _, r := range input {
		if isSeparator(r) {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		out.WriteRune(r)
	}

	result := out.String()
	first, size := utf8.DecodeRuneInString(result)
	if first == utf8.RuneError {
		return result
	}
	return string(unicode.ToUpper(first)) + result[size:]
}

func isSeparator(r rune) bool {
	return r == '-' || r == '_' || unicode.IsSpace(r)
}
