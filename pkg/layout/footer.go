package layout

import "fmt"

// Footer holds the page-independent footer texts.
type Footer struct {
	// Left is the target identifier shown on the left.
	Left string
	// Center is the generation date shown in the middle.
	Center string
}

// PageLabel returns the right-hand footer text for page i of n.
func PageLabel(i, n int) string {
	return fmt.Sprintf("Page %d of %d", i, n)
}

// StampFooters adds the footer to every page 1..Pages() and finalizes the
// State. It must run after all content blocks; a finalized State rejects
// further blocks and a second StampFooters.
func StampFooters(s State, m Measurer, f Footer) (State, error) {
	const block = "footer"
	if s.finalized {
		return s, renderErr(block, ErrFinalized)
	}
	if m == nil {
		return s, renderErr(block, ErrNoMeasurer)
	}

	font := regular(8)
	c := s.clone()
	n := c.pages
	for i := 1; i <= n; i++ {
		right := PageLabel(i, n)
		cw := m.StringWidth(font, f.Center)
		rw := m.StringWidth(font, right)
		if !finite(cw) || !finite(rw) || cw < 0 || rw < 0 {
			return s, renderErr(block, ErrInvalidDimension)
		}
		c.cmds = append(c.cmds,
			Command{Op: OpLine, Page: i, X: Margin, Y: FooterRuleY, X2: PageWidth - Margin, Y2: FooterRuleY, Color: ColorRule, Footer: true},
			Command{Op: OpText, Page: i, X: Margin, Y: FooterTextY, Text: f.Left, Font: font, Color: ColorFooter, Footer: true},
			Command{Op: OpText, Page: i, X: (PageWidth - cw) / 2, Y: FooterTextY, Text: f.Center, Font: font, Color: ColorFooter, Footer: true},
			Command{Op: OpText, Page: i, X: PageWidth - Margin - rw, Y: FooterTextY, Text: right, Font: font, Color: ColorFooter, Footer: true},
		)
	}
	c.finalized = true
	return c, nil
}

// FooterTexts returns the footer texts of page i in left, center, right
// order, or nil if the page has no footer.
func (s State) FooterTexts(page int) []string {
	var out []string
	for _, cmd := range s.cmds {
		if cmd.Footer && cmd.Op == OpText && cmd.Page == page {
			out = append(out, cmd.Text)
		}
	}
	return out
}
