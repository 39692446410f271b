package layout

import "github.com/vareport/vareport/pkg/finding"

// A4 portrait geometry in millimetres.
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 20.0
	ContentWidth = PageWidth - 2*Margin

	// ContentBottom is the lowest point a block may reach.
	ContentBottom = PageHeight - Margin

	FooterRuleY = 280.0
	FooterTextY = 285.0
)

// Block heights and gaps.
const (
	TitleAdvance = 15.0

	SectionLookahead = 30.0
	SectionPadding   = 15.0
	SectionBand      = 14.0

	SubHeaderLookahead = 15.0
	SubHeaderAdvance   = 12.0

	KeyValueLine    = 6.0
	KeyValuePadding = 4.0
	keyLabelGap     = 10.0

	RowHeight  = 8.0
	TableGap   = 5.0
	cellInset  = 2.0
	cellOffset = 5.0

	IndicatorHeight = 8.0

	CardLookahead   = 80.0
	CardTitleLine   = 8.0
	CardMetaLine    = 8.0
	CardDescLine    = 4.0
	CardPadding     = 8.0
	CardMaxDesc     = 3
	CardGap         = 2.0
	cardBar         = 5.0
	cardInset       = 8.0
	CardDescWidth   = ContentWidth - 15
	BannerHeight    = 60.0
	bannerFirstLine = 25.0
	bannerLineGap   = 15.0
	bannerAfter     = 20.0

	calloutTitle   = 10.0
	calloutFirst   = 20.0
	calloutLineGap = 7.0
	calloutBottom  = 6.0

	ListLookahead = 20.0
	ListAdvance   = 15.0
	ListLine      = 6.0
)

// Font selects a core font face.
type Font struct {
	Family string
	Style  string
	Size   float64
}

const family = "Helvetica"

func regular(size float64) Font { return Font{Family: family, Size: size} }
func bold(size float64) Font    { return Font{Family: family, Style: "B", Size: size} }

// Color is an RGB triple, each component 0-255.
type Color struct {
	R, G, B int
}

// Palette.
var (
	ColorInk    = Color{44, 62, 80}
	ColorAccent = Color{52, 152, 219}
	ColorMuted  = Color{149, 165, 166}
	ColorBody   = Color{52, 73, 94}
	ColorPanel  = Color{236, 240, 241}
	ColorStripe = Color{249, 249, 249}
	ColorCard   = Color{250, 250, 250}
	ColorRule   = Color{189, 195, 199}
	ColorFooter = Color{127, 140, 141}
	ColorWhite  = Color{255, 255, 255}
)

// SeverityColor returns the swatch colour for sev.
func SeverityColor(sev finding.Severity) Color {
	c := sev.Color()
	return Color{R: c.R, G: c.G, B: c.B}
}

// Measurer reports text metrics. Implementations must be deterministic.
type Measurer interface {
	// StringWidth returns the rendered width of s in font.
	StringWidth(font Font, s string) float64

	// SplitText wraps s into lines no wider than width. Words longer than
	// width are broken.
	SplitText(font Font, s string, width float64) []string
}

// TableCapacity returns the maximum number of body rows a single Table
// block can hold.
func TableCapacity() int {
	usable := ContentBottom - Margin
	return int(usable/RowHeight) - 1
}

// maxLines returns how many lines of height line fit on an empty page
// after a fixed overhead.
func maxLines(overhead, line float64) int {
	return int((ContentBottom - Margin - overhead) / line)
}
