// Package render replays layout commands against a document backend.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vareport/vareport/pkg/bufpool"
	"github.com/vareport/vareport/pkg/layout"
)

var (
	// ErrPageOutOfRange is returned when a command targets a page the
	// backend does not have.
	ErrPageOutOfRange = errors.New("render: page out of range")

	// ErrUnknownOp is returned for a command with an unrecognized Op.
	ErrUnknownOp = errors.New("render: unknown command")

	// ErrInvalidDocument is returned when an emitted document fails
	// structural validation.
	ErrInvalidDocument = errors.New("render: invalid document")
)

// ArtifactError reports a failure to produce the final document.
type ArtifactError struct {
	Op  string
	Err error
}

func (e *ArtifactError) Error() string {
	return "render: " + e.Op + ": " + e.Err.Error()
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// Backend draws primitives onto pages. Pages are numbered from 1; AddPage
// appends a page and makes it current.
type Backend interface {
	AddPage()
	SetPage(n int)
	PageCount() int
	Text(x, y float64, s string, font layout.Font, c layout.Color)
	Rect(x, y, w, h float64, c layout.Color)
	Line(x1, y1, x2, y2 float64, c layout.Color)

	// Err returns the first drawing error, if any.
	Err() error
}

// Document is a Backend that can serialize itself.
type Document interface {
	Backend
	Output(w io.Writer) error
}

// Execute replays cmds in order against b.
func Execute(cmds []layout.Command, b Backend) error {
	current := 0
	for i, c := range cmds {
		if c.Op == layout.OpAddPage {
			b.AddPage()
			current = b.PageCount()
			if current != c.Page {
				return &ArtifactError{Op: "execute", Err: fmt.Errorf("command %d: added page %d, want %d: %w", i, current, c.Page, ErrPageOutOfRange)}
			}
			continue
		}

		if c.Page < 1 || c.Page > b.PageCount() {
			return &ArtifactError{Op: "execute", Err: fmt.Errorf("command %d: page %d of %d: %w", i, c.Page, b.PageCount(), ErrPageOutOfRange)}
		}
		if c.Page != current {
			b.SetPage(c.Page)
			current = c.Page
		}

		switch c.Op {
		case layout.OpText:
			b.Text(c.X, c.Y, c.Text, c.Font, c.Color)
		case layout.OpRect:
			b.Rect(c.X, c.Y, c.W, c.H, c.Color)
		case layout.OpLine:
			b.Line(c.X, c.Y, c.X2, c.Y2, c.Color)
		default:
			return &ArtifactError{Op: "execute", Err: fmt.Errorf("command %d: %s: %w", i, c.Op, ErrUnknownOp)}
		}
	}
	if err := b.Err(); err != nil {
		return &ArtifactError{Op: "execute", Err: err}
	}
	return nil
}

// Bytes executes cmds against doc and returns the serialized document.
// Nothing is returned unless every step succeeds.
func Bytes(cmds []layout.Command, doc Document) ([]byte, error) {
	if err := Execute(cmds, doc); err != nil {
		return nil, err
	}
	buf := bufpool.Get()
	defer bufpool.Put(buf)
	if err := doc.Output(buf); err != nil {
		return nil, &ArtifactError{Op: "output", Err: err}
	}
	return bytes.Clone(buf.Bytes()), nil
}
