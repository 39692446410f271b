package finding

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Severity represents the severity level of a vulnerability record.
// All values are lowercase strings.
type Severity string

const (
	// Critical represents immediate system compromise.
	Critical Severity = "critical"

	// High represents significant impact requiring prompt fix.
	High Severity = "high"

	// Medium represents moderate impact.
	Medium Severity = "medium"

	// Low represents limited impact.
	Low Severity = "low"

	// Info represents informational findings with no direct security impact.
	Info Severity = "info"

	// Unknown is assigned to every value that does not name a level.
	Unknown Severity = "unknown"
)

var titleCase = cases.Title(language.English)

// Parse normalizes raw into the closed enum. Matching is case-insensitive
// and ignores surrounding whitespace; anything unmatched maps to Unknown.
func Parse(raw string) Severity {
	switch s := Severity(strings.ToLower(strings.TrimSpace(raw))); s {
	case Critical, High, Medium, Low, Info:
		return s
	default:
		return Unknown
	}
}

// Strict is Parse without the Unknown fallback.
func Strict(raw string) (Severity, error) {
	s := Parse(raw)
	if s == Unknown && !strings.EqualFold(strings.TrimSpace(raw), string(Unknown)) {
		return Unknown, fmt.Errorf("%w: %q", ErrUnknownSeverity, raw)
	}
	return s, nil
}

// Ordered returns every severity from most to least severe, Unknown last.
func Ordered() []Severity {
	return []Severity{Critical, High, Medium, Low, Info, Unknown}
}

// IsValid reports whether s is a member of the enum.
func (s Severity) IsValid() bool {
	switch s {
	case Critical, High, Medium, Low, Info, Unknown:
		return true
	}
	return false
}

// Score returns a numeric score for sorting and comparison.
// Critical=5, High=4, Medium=3, Low=2, Info=1, Unknown=0.
func (s Severity) Score() int {
	switch s {
	case Critical:
		return 5
	case High:
		return 4
	case Medium:
		return 3
	case Low:
		return 2
	case Info:
		return 1
	default:
		return 0
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// Label returns the display form, e.g. "Critical". Values outside the enum
// are labelled "Unknown".
func (s Severity) Label() string {
	if !s.IsValid() {
		s = Unknown
	}
	return titleCase.String(string(s))
}

// Color is an RGB triple in the 0-255 range.
type Color struct {
	R, G, B int
}

// RGB returns the components.
func (c Color) RGB() (int, int, int) { return c.R, c.G, c.B }

// Color returns the swatch colour for s: critical red, high orange, medium
// yellow, low green, info blue, anything else gray.
func (s Severity) Color() Color {
	switch s {
	case Critical:
		return Color{231, 76, 60}
	case High:
		return Color{230, 126, 34}
	case Medium:
		return Color{241, 196, 15}
	case Low:
		return Color{46, 204, 113}
	case Info:
		return Color{52, 152, 219}
	default:
		return Color{127, 140, 141}
	}
}
