package strutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"long text truncated", strings.Repeat("a", 100), 10, "aaaaaaa..."},
		{"short unchanged", "ssh", 10, "ssh"},
		{"exact boundary unchanged", "exactly10!", 10, "exactly10!"},
		{"tiny max without ellipsis", "abcdef", 2, "ab"},
		{"zero max", "abc", 0, ""},
		{"multibyte runes kept whole", "ÄÖÜäöüß", 5, "ÄÖ..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Truncate(tt.input, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestToUTF8(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"valid unchanged", "caf\u00e9 \u00c4", "caf\u00e9 \u00c4"},
		{"latin-1 e acute", "caf\xe9", "caf\u00e9"},
		{"cp1252 euro", "\x80 10", "\u20ac 10"},
		{"mixed valid and invalid", "\u00c4 \xff", "\u00c4 \u00ff"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ToUTF8(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  plain  ", "plain"},
		{"line\r\nbreak\ttab", "line break tab"},
		{"nbsp\u00a0here", "nbsp here"},
		{"sep\u2028line\u2029para", "sep line para"},
		{"many     spaces", "many spaces"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollapseWhitespace(tt.in), "%q", tt.in)
	}
}
