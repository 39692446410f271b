// Package hooks provides dispatcher hooks that forward generation events
// to process logs and external systems: webhooks, Prometheus, OpenTelemetry
// collectors and NATS subjects.
package hooks

import (
	"context"
	"log/slog"

	"github.com/vareport/vareport/pkg/output/dispatcher"
	"github.com/vareport/vareport/pkg/output/events"
)

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// Compile-time interface check.
var _ dispatcher.Hook = (*LogHook)(nil)

// LogHook renders every event as a slog record. Successful generations log
// at Info, failed ones at Error, diagnostics at DiagnosticLevel.
type LogHook struct {
	logger *slog.Logger
	opts   LogOptions
}

// LogOptions configures the log hook.
type LogOptions struct {
	// Logger receives records. Defaults to slog.Default().
	Logger *slog.Logger

	// DiagnosticLevel is the level of diagnostic records (default: Debug).
	DiagnosticLevel slog.Leveler
}

// NewLogHook creates a log hook.
func NewLogHook(opts LogOptions) *LogHook {
	if opts.DiagnosticLevel == nil {
		opts.DiagnosticLevel = slog.LevelDebug
	}
	return &LogHook{logger: orDefault(opts.Logger), opts: opts}
}

// OnEvent logs the event.
func (h *LogHook) OnEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.GenerationEvent:
		attrs := []slog.Attr{
			slog.String("generation_id", e.GenerationID()),
			slog.String("report_id", e.Record.ReportID),
			slog.String("target_ip", e.Record.TargetIP),
			slog.Int("vulnerabilities", e.Record.VulnerabilitiesCount),
			slog.String("status", string(e.Record.Status)),
			slog.Int64("duration_ms", e.DurationMs),
		}
		if e.Failed() {
			attrs = append(attrs, slog.String("error", e.Error))
			h.logger.LogAttrs(ctx, slog.LevelError, "report generation failed", attrs...)
			return nil
		}
		attrs = append(attrs, slog.String("file", e.FileName), slog.Int("pages", e.Pages))
		h.logger.LogAttrs(ctx, slog.LevelInfo, "report generated", attrs...)
	case *events.DiagnosticEvent:
		attrs := []slog.Attr{
			slog.String("generation_id", e.GenerationID()),
			slog.String("kind", e.Kind),
			slog.String("field", e.Field),
		}
		if e.Path != "" {
			attrs = append(attrs, slog.String("path", e.Path))
		}
		h.logger.LogAttrs(ctx, h.opts.DiagnosticLevel.Level(), e.Message, attrs...)
	}
	return nil
}

// EventTypes returns nil to receive all event types.
func (h *LogHook) EventTypes() []events.EventType {
	return nil
}
