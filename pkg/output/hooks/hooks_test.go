package hooks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vareport/vareport/pkg/output/events"
)

// logRecorder captures slog.Record entries for assertions.
type logRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *logRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }

func (r *logRecorder) WithGroup(string) slog.Handler { return r }

func (r *logRecorder) getRecords() []slog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	dst := make([]slog.Record, len(r.records))
	copy(dst, r.records)
	return dst
}

func attrs(rec slog.Record) map[string]string {
	out := make(map[string]string)
	rec.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.String()
		return true
	})
	return out
}

var testTime = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

func newGeneration(id string, status events.Status) *events.GenerationEvent {
	ev := events.NewGenerationEvent(id, events.GenerationRecord{
		ReportID:             "VULN_1740825000000",
		TargetIP:             "10.0.0.5",
		GeneratedAt:          testTime.Format(time.RFC3339),
		VulnerabilitiesCount: 4,
		Status:               status,
		Timestamp:            testTime.UnixMilli(),
	})
	ev.DurationMs = 120
	if status == events.StatusFailed {
		ev.Error = "layout: table: invalid table"
		return ev
	}
	ev.FileName = "Vulnerability_Assessment_Report_2025-03-01_10_0_0_5.pdf"
	ev.Pages = 6
	return ev
}

func newDiagnostic(id, field string) *events.DiagnosticEvent {
	return events.NewDiagnosticEvent(id, testTime.Add(-time.Millisecond), "data_shape", field, field, "fallback used")
}
