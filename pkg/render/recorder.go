package render

import (
	"fmt"
	"io"

	"github.com/vareport/vareport/pkg/layout"
)

// Call is one primitive received by a Recorder.
type Call struct {
	Op   string
	Page int
	Args string
}

// Recorder is an in-memory Document that records every call. Fail, when
// set, is reported by Err and Output.
type Recorder struct {
	Calls []Call
	Fail  error

	pages   int
	current int
}

var _ Document = (*Recorder)(nil)

func (r *Recorder) AddPage() {
	r.pages++
	r.current = r.pages
	r.record("addpage", "")
}

func (r *Recorder) SetPage(n int) {
	r.current = n
	r.record("setpage", fmt.Sprint(n))
}

func (r *Recorder) PageCount() int { return r.pages }

func (r *Recorder) Text(x, y float64, s string, font layout.Font, c layout.Color) {
	r.record("text", fmt.Sprintf("%.2f,%.2f %s/%s/%.0f %q", x, y, font.Family, font.Style, font.Size, s))
}

func (r *Recorder) Rect(x, y, w, h float64, c layout.Color) {
	r.record("rect", fmt.Sprintf("%.2f,%.2f %.2fx%.2f rgb(%d,%d,%d)", x, y, w, h, c.R, c.G, c.B))
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, c layout.Color) {
	r.record("line", fmt.Sprintf("%.2f,%.2f-%.2f,%.2f", x1, y1, x2, y2))
}

func (r *Recorder) Err() error { return r.Fail }

// Output writes one line per recorded call.
func (r *Recorder) Output(w io.Writer) error {
	if r.Fail != nil {
		return r.Fail
	}
	for _, c := range r.Calls {
		if _, err := fmt.Fprintf(w, "%d %s %s\n", c.Page, c.Op, c.Args); err != nil {
			return err
		}
	}
	return nil
}

// Texts returns the text drawn on page n, in drawing order.
func (r *Recorder) Texts(n int) []string {
	var out []string
	for _, c := range r.Calls {
		if c.Op == "text" && c.Page == n {
			out = append(out, c.Args)
		}
	}
	return out
}

func (r *Recorder) record(op, args string) {
	r.Calls = append(r.Calls, Call{Op: op, Page: r.current, Args: args})
}
