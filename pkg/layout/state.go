package layout

import (
	"fmt"
	"math"
)

// Op identifies a drawing command.
type Op int

const (
	OpAddPage Op = iota + 1
	OpText
	OpRect
	OpLine
)

func (o Op) String() string {
	switch o {
	case OpAddPage:
		return "addpage"
	case OpText:
		return "text"
	case OpRect:
		return "rect"
	case OpLine:
		return "line"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Command is one drawing instruction. Coordinates are millimetres from the
// top-left corner of the page; Text is drawn on its baseline at (X, Y).
// Rect uses X, Y, W, H and is always filled. Line runs from (X, Y) to
// (X2, Y2).
type Command struct {
	Op     Op
	Page   int
	X, Y   float64
	W, H   float64
	X2, Y2 float64
	Text   string
	Font   Font
	Color  Color
	Footer bool
}

// Placement records where a block was put after its page-break check.
type Placement struct {
	Block  string
	Page   int
	Top    float64
	Height float64
}

// Bottom is Top+Height.
func (p Placement) Bottom() float64 { return p.Top + p.Height }

// State is an immutable layout snapshot. The zero value is not usable;
// start from New.
type State struct {
	page       int
	pages      int
	cursor     float64
	cmds       []Command
	placements []Placement
	finalized  bool
}

// New returns a State positioned at the top of a single empty page.
func New() State {
	return State{
		page:   1,
		pages:  1,
		cursor: Margin,
		cmds:   []Command{{Op: OpAddPage, Page: 1}},
	}
}

// Cursor returns the vertical drawing offset on the current page.
func (s State) Cursor() float64 { return s.cursor }

// Page returns the current page number, starting at 1.
func (s State) Page() int { return s.page }

// Pages returns the number of pages produced so far.
func (s State) Pages() int { return s.pages }

// Finalized reports whether footers have been stamped.
func (s State) Finalized() bool { return s.finalized }

// Commands returns a copy of the accumulated commands.
func (s State) Commands() []Command {
	return append([]Command(nil), s.cmds...)
}

// Placements returns a copy of the recorded block placements.
func (s State) Placements() []Placement {
	return append([]Placement(nil), s.placements...)
}

// builder accumulates one block on a private copy of a State.
type builder struct {
	orig  State
	s     State
	block string
	y     float64
	err   error
}

func (s State) clone() State {
	c := s
	c.cmds = append(make([]Command, 0, len(s.cmds)+16), s.cmds...)
	c.placements = append(make([]Placement, 0, len(s.placements)+1), s.placements...)
	return c
}

// begin starts a block that needs height below the cursor, breaking the
// page at most once.
func (s State) begin(block string, height float64) (*builder, error) {
	if s.finalized {
		return nil, renderErr(block, ErrFinalized)
	}
	if !finite(height) || height < 0 {
		return nil, renderErr(block, ErrInvalidDimension)
	}
	c := s.clone()
	if c.cursor+height > ContentBottom {
		c = c.addPage()
	}
	c.placements = append(c.placements, Placement{Block: block, Page: c.page, Top: c.cursor, Height: height})
	return &builder{orig: s, s: c, block: block, y: c.cursor}, nil
}

// beginAt starts a block without a page-break check.
func (s State) beginAt(block string, height float64) (*builder, error) {
	if s.finalized {
		return nil, renderErr(block, ErrFinalized)
	}
	c := s.clone()
	c.placements = append(c.placements, Placement{Block: block, Page: c.page, Top: c.cursor, Height: height})
	return &builder{orig: s, s: c, block: block, y: c.cursor}, nil
}

func (s State) addPage() State {
	s.pages++
	s.page = s.pages
	s.cursor = Margin
	s.cmds = append(s.cmds, Command{Op: OpAddPage, Page: s.page})
	return s
}

// moveTo repositions the block on the current page.
func (b *builder) moveTo(y float64) {
	b.y = y
	b.s.placements[len(b.s.placements)-1].Top = y
}

func (b *builder) text(x, y float64, txt string, font Font, c Color) {
	if txt == "" {
		return
	}
	b.check(x, y)
	b.s.cmds = append(b.s.cmds, Command{Op: OpText, Page: b.s.page, X: x, Y: y, Text: txt, Font: font, Color: c})
}

func (b *builder) rect(x, y, w, h float64, c Color) {
	b.check(x, y, w, h)
	b.s.cmds = append(b.s.cmds, Command{Op: OpRect, Page: b.s.page, X: x, Y: y, W: w, H: h, Color: c})
}

func (b *builder) line(x, y, x2, y2 float64, c Color) {
	b.check(x, y, x2, y2)
	b.s.cmds = append(b.s.cmds, Command{Op: OpLine, Page: b.s.page, X: x, Y: y, X2: x2, Y2: y2, Color: c})
}

func (b *builder) check(vals ...float64) {
	for _, v := range vals {
		if !finite(v) || v < 0 {
			b.err = ErrInvalidDimension
		}
	}
}

// commit advances the cursor and returns the finished State. On error the
// State the block started from is returned unchanged.
func (b *builder) commit(advance float64) (State, error) {
	if b.err != nil {
		return b.orig, renderErr(b.block, b.err)
	}
	b.s.cursor = b.y + advance
	return b.s, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
