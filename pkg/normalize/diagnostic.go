package normalize

import "fmt"

// Kind classifies a diagnostic.
type Kind string

const (
	// KindDataShape marks an absent or malformed input field that was
	// replaced by a fallback.
	KindDataShape Kind = "data_shape"

	// KindParse marks scan text that could not be turned into records.
	KindParse Kind = "parse"
)

// Diagnostic records one locally recovered input problem. Diagnostics are
// informational: they never change the model that Build returns.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Field   string `json:"field"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("%s %s (%s): %s", d.Kind, d.Field, d.Path, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Field, d.Message)
}

// trace accumulates diagnostics for one Build call.
type trace struct {
	diags []Diagnostic
}

func (t *trace) shape(field, path, format string, args ...any) {
	t.diags = append(t.diags, Diagnostic{Kind: KindDataShape, Field: field, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (t *trace) parse(field, format string, args ...any) {
	t.diags = append(t.diags, Diagnostic{Kind: KindParse, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (t *trace) fallback(field, value string) {
	t.shape(field, "", "no usable value, using fallback %q", value)
}

// text is Text with mismatch tracing. When quiet is set a fallback is not
// reported, which keeps per-record defaults from flooding the stream.
func (t *trace) text(root any, field, fallback string, quiet bool, sources ...Accessor) string {
	for _, src := range sources {
		v, ok := src.Get(root)
		if !ok {
			continue
		}
		s, ok := scalarText(v)
		if !ok {
			t.shape(field, src.Label, "expected text, got %s", kindOf(v))
			continue
		}
		if usable(s) {
			return s
		}
	}
	if !quiet {
		t.fallback(field, fallback)
	}
	return fallback
}
