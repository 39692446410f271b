// Package strutil provides string helpers for text that arrives from
// scanners and collaborators.
package strutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
// With maxLen <= 3 the cut has no ellipsis.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// ToUTF8 returns s with every byte that is not part of a valid UTF-8
// sequence decoded as Windows-1252, the usual encoding of scanner output
// on Windows hosts. Valid UTF-8 is returned unchanged.
func ToUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			r = charmap.Windows1252.DecodeByte(s[i])
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

// CollapseWhitespace replaces every run of Unicode white space (tabs, line
// breaks, non-breaking spaces, line and paragraph separators) with a single
// space and trims both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
