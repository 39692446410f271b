package render

import (
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/layout"
)

// PDFOptions configures a PDF document.
type PDFOptions struct {
	Title   string
	Subject string
	Author  string

	// Created is stamped as both creation and modification date. Fixing it
	// makes output reproducible. Defaults to time.Now.
	Created time.Time

	// NoCompress disables stream compression so that text is searchable
	// in the raw bytes.
	NoCompress bool
}

// PDF is a Document backed by fpdf using the core Helvetica fonts. Text is
// translated to cp1252 before drawing.
type PDF struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

var _ Document = (*PDF)(nil)

// NewPDF returns an empty A4 portrait document measured in millimetres.
func NewPDF(opts PDFOptions) *PDF {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(layout.Margin, layout.Margin, layout.Margin)
	pdf.SetCompression(!opts.NoCompress)
	pdf.SetCatalogSort(true)

	created := opts.Created
	if created.IsZero() {
		created = time.Now()
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)

	pdf.SetTitle(opts.Title, true)
	pdf.SetSubject(opts.Subject, true)
	pdf.SetAuthor(opts.Author, true)
	pdf.SetCreator(defaults.ToolName+" "+defaults.Version, true)

	return &PDF{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (p *PDF) AddPage() { p.pdf.AddPage() }

func (p *PDF) SetPage(n int) { p.pdf.SetPage(n) }

func (p *PDF) PageCount() int { return p.pdf.PageCount() }

func (p *PDF) Err() error { return p.pdf.Error() }

func (p *PDF) Text(x, y float64, s string, font layout.Font, c layout.Color) {
	p.pdf.SetFont(font.Family, font.Style, font.Size)
	p.pdf.SetTextColor(c.R, c.G, c.B)
	p.pdf.Text(x, y, p.tr(s))
}

func (p *PDF) Rect(x, y, w, h float64, c layout.Color) {
	p.pdf.SetFillColor(c.R, c.G, c.B)
	p.pdf.Rect(x, y, w, h, "F")
}

func (p *PDF) Line(x1, y1, x2, y2 float64, c layout.Color) {
	p.pdf.SetDrawColor(c.R, c.G, c.B)
	p.pdf.Line(x1, y1, x2, y2)
}

// Output writes the document. It fails if any earlier call failed.
func (p *PDF) Output(w io.Writer) error {
	return p.pdf.Output(w)
}

// FontMeasurer measures text with the core font metrics used by PDF. It is
// safe for concurrent use; calls are serialised.
type FontMeasurer struct {
	mu  sync.Mutex
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

var _ layout.Measurer = (*FontMeasurer)(nil)

// NewFontMeasurer returns a measurer for the core fonts.
func NewFontMeasurer() *FontMeasurer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	return &FontMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *FontMeasurer) StringWidth(font layout.Font, s string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(font.Family, font.Style, font.Size)
	return m.pdf.GetStringWidth(m.tr(s))
}

// SplitText wraps on whitespace. Words wider than width are broken
// between runes. Lines are returned untranslated.
func (m *FontMeasurer) SplitText(font layout.Font, s string, width float64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(font.Family, font.Style, font.Size)
	fits := func(s string) bool { return m.pdf.GetStringWidth(m.tr(s)) <= width }

	var lines []string
	cur := ""
	for _, word := range strings.Fields(s) {
		if cur != "" && fits(cur+" "+word) {
			cur += " " + word
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		for !fits(word) && utf8.RuneCountInString(word) > 1 {
			head := breakWord(word, fits)
			lines = append(lines, head)
			word = word[len(head):]
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// breakWord returns the longest prefix of word that fits, at least one
// rune.
func breakWord(word string, fits func(string) bool) string {
	end := 0
	for end < len(word) {
		_, size := utf8.DecodeRuneInString(word[end:])
		next := end + size
		if end > 0 && !fits(word[:next]) {
			break
		}
		end = next
	}
	return word[:end]
}
