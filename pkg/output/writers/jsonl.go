// Package writers provides dispatcher.Writer implementations.
//
// The JSONL writer appends one JSON object per event, which is how the
// generation log is kept on disk between invocations.
package writers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/output/dispatcher"
	"github.com/vareport/vareport/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JSONLWriter)(nil)

// JSONLWriter writes events as newline-delimited JSON (JSONL).
// Each event is serialized as a complete JSON object on a single line,
// so the log can be tailed, grepped and streamed through jq.
type JSONLWriter struct {
	w       io.Writer
	mu      sync.Mutex
	opts    JSONLOptions
	encoder *jsonutil.Encoder
}

// JSONLOptions configures the JSONL writer behavior.
type JSONLOptions struct {
	// OnlyGenerations drops diagnostic events and keeps the generation log.
	OnlyGenerations bool

	// OnlyFailures keeps only generation events with status FAILED.
	// Implies OnlyGenerations.
	OnlyFailures bool

	// Pretty enables indented JSON output.
	// Note: This is not JSONL compliant but useful for debugging.
	Pretty bool
}

// NewJSONLWriter creates a new JSONL writer that writes to w.
// The writer is safe for concurrent use.
func NewJSONLWriter(w io.Writer, opts JSONLOptions) *JSONLWriter {
	encoder := jsonutil.NewStreamEncoder(w)
	if opts.Pretty {
		encoder.SetIndent("  ")
	}
	return &JSONLWriter{
		w:       w,
		opts:    opts,
		encoder: encoder,
	}
}

// OpenJSONLFile opens path for appending, creating parent directories, and
// returns a writer that closes the file on Close.
func OpenJSONLFile(path string, opts JSONLOptions) (*JSONLWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("writers: create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("writers: open log file: %w", err)
	}
	return NewJSONLWriter(f, opts), nil
}

// Write writes an event as a single JSON line.
// Returns nil if the event was filtered out by options.
func (jw *JSONLWriter) Write(event events.Event) error {
	if jw.opts.OnlyFailures {
		ge, ok := event.(*events.GenerationEvent)
		if !ok || !ge.Failed() {
			return nil
		}
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.encoder.Encode(event)
}

// Flush syncs the underlying file when there is one.
func (jw *JSONLWriter) Flush() error {
	if f, ok := jw.w.(*os.File); ok {
		return f.Sync()
	}
	return nil
}

// Close closes the writer and releases any resources.
// If the underlying writer implements io.Closer, it will be closed.
func (jw *JSONLWriter) Close() error {
	if closer, ok := jw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent reports whether the options let eventType through.
func (jw *JSONLWriter) SupportsEvent(eventType events.EventType) bool {
	if jw.opts.OnlyGenerations || jw.opts.OnlyFailures {
		return eventType == events.EventTypeGeneration
	}
	return true
}
