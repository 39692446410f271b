package layout

import "errors"

var (
	// ErrInvalidDimension is returned when a block would be drawn with a
	// negative, NaN or infinite size or position.
	ErrInvalidDimension = errors.New("layout: invalid dimension")

	// ErrFinalized is returned when a block is added after StampFooters.
	ErrFinalized = errors.New("layout: document already finalized")

	// ErrInvalidTable is returned for tables without columns, with ragged
	// rows, or with more rows than fit on one page.
	ErrInvalidTable = errors.New("layout: invalid table")

	// ErrNoMeasurer is returned when a block that measures text gets a nil
	// Measurer.
	ErrNoMeasurer = errors.New("layout: nil measurer")
)

// RenderError reports a block that could not be laid out. It is fatal for
// the generation that produced it.
type RenderError struct {
	Block string
	Err   error
}

func (e *RenderError) Error() string {
	return "layout: " + e.Block + ": " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }

func renderErr(block string, err error) error {
	return &RenderError{Block: block, Err: err}
}
