package layout

import (
	"fmt"
	"strconv"

	"github.com/vareport/vareport/pkg/finding"
	"github.com/vareport/vareport/pkg/model"
)

// Title draws centred document title text. It has no page-break check and
// is meant for the top of the first page. The report cover uses Banner,
// which draws its title lines inside the filled band; Title serves
// documents that start without one.
func Title(s State, m Measurer, text string) (State, error) {
	const block = "title"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	b, err := s.beginAt(block, TitleAdvance)
	if err != nil {
		return s, err
	}
	font := bold(20)
	text = clip(m, font, text, ContentWidth)
	w := m.StringWidth(font, text)
	b.text((PageWidth-w)/2, b.y, text, font, ColorInk)
	return b.commit(TitleAdvance)
}

// Banner fills the top band of the current page and centres lines in it.
// The cursor moves below the band.
func Banner(s State, m Measurer, lines ...string) (State, error) {
	const block = "banner"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	b, err := s.beginAt(block, BannerHeight)
	if err != nil {
		return s, err
	}
	b.moveTo(0)
	b.rect(0, 0, PageWidth, BannerHeight, ColorInk)
	font := bold(28)
	for i, line := range lines {
		line = clip(m, font, line, ContentWidth)
		w := m.StringWidth(font, line)
		b.text(PageWidth/2-w/2, bannerFirstLine+float64(i)*bannerLineGap, line, font, ColorWhite)
	}
	return b.commit(BannerHeight + bannerAfter)
}

// SectionHeader draws a filled band with the section title.
func SectionHeader(s State, m Measurer, title string) (State, error) {
	const block = "section_header"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	font := bold(14)
	title = clip(m, font, title, ContentWidth-10)
	b, err := s.begin(block, SectionLookahead)
	if err != nil {
		return s, err
	}
	y := b.y + SectionPadding
	b.rect(Margin, y-8, ContentWidth, SectionBand, ColorAccent)
	b.text(Margin+5, y+2, title, font, ColorWhite)
	return b.commit(2 * SectionPadding)
}

// SubHeader draws a heading underlined to the width of its text.
func SubHeader(s State, m Measurer, text string) (State, error) {
	const block = "sub_header"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	font := bold(12)
	text = clip(m, font, text, ContentWidth)
	w := m.StringWidth(font, text)
	b, err := s.begin(block, SubHeaderLookahead)
	if err != nil {
		return s, err
	}
	b.text(Margin, b.y, text, font, ColorMuted)
	b.line(Margin, b.y+2, Margin+w, b.y+2, ColorMuted)
	return b.commit(SubHeaderAdvance)
}

// KeyValue draws "key:" followed by value wrapped in the remaining width.
// A value too long for one page is clipped.
func KeyValue(s State, m Measurer, key, value string) (State, error) {
	const block = "key_value"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	keyFont, valueFont := bold(10), regular(10)
	keyWidth := m.StringWidth(keyFont, key+": ") + keyLabelGap
	valueWidth := ContentWidth - keyWidth
	if !finite(keyWidth) || keyWidth < 0 || valueWidth <= 0 {
		return s, renderErr(block, ErrInvalidDimension)
	}

	lines := m.SplitText(valueFont, value, valueWidth)
	if len(lines) == 0 {
		lines = []string{""}
	}
	if limit := maxLines(KeyValuePadding, KeyValueLine); len(lines) > limit {
		lines = lines[:limit]
		lines[limit-1] += " ..."
	}
	height := float64(len(lines))*KeyValueLine + KeyValuePadding

	b, err := s.begin(block, height)
	if err != nil {
		return s, err
	}
	b.text(Margin, b.y, key+":", keyFont, ColorInk)
	for i, line := range lines {
		b.text(Margin+keyWidth, b.y+float64(i)*KeyValueLine, line, valueFont, ColorBody)
	}
	return b.commit(height)
}

// Table draws a header row and body rows in equal-width columns. Each cell
// is clipped to one line. Body rows beyond TableCapacity must be split
// across several tables by the caller.
func Table(s State, m Measurer, headers []string, rows [][]string) (State, error) {
	const block = "table"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	if len(headers) == 0 || len(rows) > TableCapacity() {
		return s, renderErr(block, ErrInvalidTable)
	}
	for _, row := range rows {
		if len(row) != len(headers) {
			return s, renderErr(block, ErrInvalidTable)
		}
	}

	colWidth := ContentWidth / float64(len(headers))
	height := float64(len(rows)+1) * RowHeight
	b, err := s.begin(block, height)
	if err != nil {
		return s, err
	}

	headFont, bodyFont := bold(9), regular(9)
	b.rect(Margin, b.y, ContentWidth, RowHeight, ColorPanel)
	for j, h := range headers {
		x := Margin + float64(j)*colWidth
		b.text(x+cellInset, b.y+cellOffset, clip(m, headFont, h, colWidth-2*cellInset), headFont, ColorInk)
	}
	for i, row := range rows {
		y := b.y + float64(i+1)*RowHeight
		if i%2 == 0 {
			b.rect(Margin, y, ContentWidth, RowHeight, ColorStripe)
		}
		for j, cell := range row {
			x := Margin + float64(j)*colWidth
			b.text(x+cellInset, y+cellOffset, clip(m, bodyFont, cell, colWidth-2*cellInset), bodyFont, ColorBody)
		}
	}
	return b.commit(height + TableGap)
}

// SeverityIndicator draws a colour swatch followed by "Label: count".
func SeverityIndicator(s State, m Measurer, sev finding.Severity, count int) (State, error) {
	b, err := s.begin("severity_indicator", IndicatorHeight)
	if err != nil {
		return s, err
	}
	b.rect(Margin, b.y-3, 4, 6, SeverityColor(sev))
	b.text(Margin+8, b.y, sev.Label()+": "+strconv.Itoa(count), regular(10), ColorInk)
	return b.commit(IndicatorHeight)
}

// CardHeight returns the height of the card drawn for a description wrapped
// into descLines lines.
func CardHeight(descLines int) float64 {
	descLines = min(descLines, CardMaxDesc)
	return CardTitleLine + CardMetaLine + float64(descLines)*CardDescLine + CardPadding
}

// VulnerabilityCard draws a shaded box for one finding with a severity bar
// along its left edge. index is the 1-based position shown before the
// title. At most CardMaxDesc description lines are shown.
func VulnerabilityCard(s State, m Measurer, index int, v model.VulnerabilityRecord) (State, error) {
	const block = "vulnerability_card"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	titleFont, metaFont, descFont := bold(11), regular(9), regular(9)

	desc := m.SplitText(descFont, v.Description, CardDescWidth)
	if len(desc) > CardMaxDesc {
		desc = desc[:CardMaxDesc]
	}
	height := CardHeight(len(desc))

	b, err := s.begin(block, max(CardLookahead, height))
	if err != nil {
		return s, err
	}
	color := SeverityColor(v.Severity)
	b.rect(Margin, b.y, ContentWidth, height, ColorCard)
	b.rect(Margin, b.y, cardBar, height, color)

	title := fmt.Sprintf("%d. %s", index, v.Title)
	b.text(Margin+cardInset, b.y+8, clip(m, titleFont, title, CardDescWidth), titleFont, ColorInk)

	meta := fmt.Sprintf("Severity: %s | Port: %s | CVSS: %s | CVE: %s", v.Severity.Label(), v.Port, v.CVSSScore, v.CVEID)
	b.text(Margin+cardInset, b.y+16, clip(m, metaFont, meta, CardDescWidth), metaFont, ColorBody)

	for i, line := range desc {
		b.text(Margin+cardInset, b.y+24+float64(i)*CardDescLine, line, descFont, ColorBody)
	}
	return b.commit(height + CardGap)
}

// Callout draws a shaded panel with a heading and body lines.
func Callout(s State, m Measurer, title string, lines ...string) (State, error) {
	const block = "callout"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	height := calloutFirst
	if len(lines) > 0 {
		height += float64(len(lines)-1)*calloutLineGap + calloutBottom
	}
	b, err := s.begin(block, height)
	if err != nil {
		return s, err
	}
	titleFont, bodyFont := bold(14), regular(10)
	b.rect(Margin, b.y, ContentWidth, height, ColorPanel)
	b.text(Margin+5, b.y+calloutTitle, clip(m, titleFont, title, ContentWidth-10), titleFont, ColorInk)
	for i, line := range lines {
		b.text(Margin+5, b.y+calloutFirst+float64(i)*calloutLineGap, clip(m, bodyFont, line, ContentWidth-10), bodyFont, ColorBody)
	}
	return b.commit(height)
}

// ListItem draws "index. text" wrapped to the content width.
func ListItem(s State, m Measurer, index int, text string) (State, error) {
	const block = "list_item"
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}
	font := bold(11)
	lines := m.SplitText(font, fmt.Sprintf("%d. %s", index, text), ContentWidth)
	if len(lines) == 0 {
		lines = []string{""}
	}
	if limit := maxLines(ListAdvance-ListLine, ListLine); len(lines) > limit {
		lines = lines[:limit]
	}
	height := ListAdvance + float64(len(lines)-1)*ListLine

	b, err := s.begin(block, max(ListLookahead, height))
	if err != nil {
		return s, err
	}
	for i, line := range lines {
		b.text(Margin, b.y+float64(i)*ListLine, line, font, ColorInk)
	}
	return b.commit(height)
}

// Spacer advances the cursor by h without drawing. The next block's
// page-break check accounts for any overflow.
func Spacer(s State, h float64) (State, error) {
	if s.finalized {
		return s, renderErr("spacer", ErrFinalized)
	}
	if !finite(h) || h < 0 {
		return s, renderErr("spacer", ErrInvalidDimension)
	}
	s.cursor += h
	return s, nil
}

// NewPage starts a new page unconditionally.
func NewPage(s State) (State, error) {
	if s.finalized {
		return s, renderErr("new_page", ErrFinalized)
	}
	return s.clone().addPage(), nil
}

func clip(m Measurer, font Font, s string, width float64) string {
	lines := m.SplitText(font, s, width)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
