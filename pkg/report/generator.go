package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/layout"
	"github.com/vareport/vareport/pkg/model"
	"github.com/vareport/vareport/pkg/normalize"
	"github.com/vareport/vareport/pkg/output/events"
	"github.com/vareport/vareport/pkg/render"
)

// Result messages.
const (
	MessageSuccess = "Report generated successfully"
	MessageFailure = "Failed to generate report"
)

// ErrPanic wraps a panic recovered during generation.
var ErrPanic = errors.New("report: panic during generation")

// ErrPageMismatch is returned when the serialized PDF does not have the
// page count the layout produced.
var ErrPageMismatch = errors.New("report: artifact page count differs from layout")

// LogRecord is the structured generation log record.
type LogRecord = events.GenerationRecord

// EventSink receives generation events. *dispatcher.Dispatcher is one.
type EventSink interface {
	Dispatch(ctx context.Context, event events.Event) error
}

// Options configures a Generator. The zero value is usable.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger

	// Events receives diagnostic and generation events.
	Events EventSink

	// Measurer measures text for layout. Defaults to render.NewFontMeasurer().
	Measurer layout.Measurer

	// NewDocument creates the output document. Defaults to render.NewPDF.
	NewDocument func(render.PDFOptions) render.Document

	// FileNameTemplate overrides defaults.FileNameTemplate.
	FileNameTemplate string

	// Catalogue overrides the embedded report text.
	Catalogue *Catalogue

	// TargetIP overrides defaults.TargetIP as the address fallback.
	TargetIP string

	// Validate checks the serialized PDF with pdfcpu before returning it.
	Validate bool

	// NoCompress disables PDF stream compression.
	NoCompress bool

	// NewID returns generation IDs. Defaults to uuid.NewString.
	NewID func() string
}

// Result is the outcome of one generation call. On failure PDF is nil and
// Error holds the cause.
type Result struct {
	Success      bool                   `json:"success"`
	FileName     string                 `json:"fileName,omitempty"`
	Message      string                 `json:"message"`
	Error        string                 `json:"error,omitempty"`
	Pages        int                    `json:"pages,omitzero"`
	Digest       string                 `json:"digest,omitempty"`
	GenerationID string                 `json:"generationId"`
	Log          LogRecord              `json:"log"`
	Diagnostics  []normalize.Diagnostic `json:"diagnostics,omitempty"`
	PDF          []byte                 `json:"-"`

	// Err is the typed cause of a failure.
	Err error `json:"-"`
}

// Generator produces reports. It holds no per-call state and is safe for
// concurrent use; every call builds its own model and layout state.
type Generator struct {
	opts   Options
	logger *slog.Logger
	cat    *Catalogue
	namer  *FileNamer
}

// New returns a Generator for opts.
func New(opts Options) (*Generator, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Measurer == nil {
		opts.Measurer = render.NewFontMeasurer()
	}
	if opts.NewDocument == nil {
		opts.NewDocument = func(o render.PDFOptions) render.Document { return render.NewPDF(o) }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cat := opts.Catalogue
	if cat == nil {
		var err error
		if cat, err = DefaultCatalogue(); err != nil {
			return nil, err
		}
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	namer, err := NewFileNamer(opts.FileNameTemplate)
	if err != nil {
		return nil, err
	}

	return &Generator{opts: opts, logger: logger, cat: cat, namer: namer}, nil
}

// Catalogue returns the report text in use.
func (g *Generator) Catalogue() *Catalogue { return g.cat }

// Generate decodes data and generates a report from it. Input that is not
// valid JSON is reported as a diagnostic and treated as an empty object.
func (g *Generator) Generate(ctx context.Context, data []byte) *Result {
	root, err := jsonutil.DecodeLoose(data)
	if err != nil {
		return g.generate(ctx, nil, []normalize.Diagnostic{{
			Kind:    normalize.KindDataShape,
			Field:   "input",
			Message: "input is not valid JSON: " + err.Error(),
		}})
	}
	return g.generate(ctx, root, nil)
}

// GenerateFrom generates a report from an already decoded document.
func (g *Generator) GenerateFrom(ctx context.Context, root any) *Result {
	return g.generate(ctx, root, nil)
}

type artifact struct {
	pdf      []byte
	fileName string
	pages    int
	digest   string
}

func (g *Generator) generate(ctx context.Context, root any, pre []normalize.Diagnostic) (res *Result) {
	start := g.opts.Now()
	id := g.opts.NewID()
	var m *model.ReportModel

	defer func() {
		if r := recover(); r != nil {
			res = g.fail(ctx, id, root, m, start, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	built, diags := normalize.Build(root, normalize.Options{
		Now:             g.opts.Now,
		TargetIP:        g.opts.TargetIP,
		Recommendations: g.cat.Recommendations.Defaults,
	})
	m = &built
	diags = append(pre, diags...)
	g.emitDiagnostics(ctx, id, diags)

	// A render in progress is never interrupted; cancellation only
	// prevents one from starting.
	if err := ctx.Err(); err != nil {
		res = g.fail(ctx, id, root, m, start, err)
		res.Diagnostics = diags
		return res
	}

	art, err := g.render(built, start)
	if err != nil {
		res = g.fail(ctx, id, root, m, start, err)
		res.Diagnostics = diags
		return res
	}

	rec := g.record(built.Metadata.ReportID, built.Target.IP, built.Summary.Total, events.StatusSuccess)
	ev := events.NewGenerationEvent(id, rec)
	ev.FileName = art.fileName
	ev.Pages = art.pages
	ev.Digest = art.digest
	ev.DurationMs = g.opts.Now().Sub(start).Milliseconds()
	g.dispatch(ctx, ev)

	g.logger.Debug("report: generated",
		slog.String("generation_id", id),
		slog.String("file", art.fileName),
		slog.Int("pages", art.pages),
		slog.Int("diagnostics", len(diags)))

	return &Result{
		Success:      true,
		FileName:     art.fileName,
		Message:      MessageSuccess,
		Pages:        art.pages,
		Digest:       art.digest,
		GenerationID: id,
		Log:          rec,
		Diagnostics:  diags,
		PDF:          art.pdf,
	}
}

// Layout builds and finalizes the layout state for m without serializing.
func (g *Generator) Layout(m model.ReportModel, now time.Time) (layout.State, error) {
	p := &pipeline{s: layout.New(), m: g.opts.Measurer}
	sections(p, m, g.cat, now)
	if p.err != nil {
		return p.s, p.err
	}
	return layout.StampFooters(p.s, g.opts.Measurer, layout.Footer{
		Left:   g.cat.Footer.LeftPrefix + m.Target.IP,
		Center: g.cat.Footer.CenterPrefix + now.UTC().Format(defaults.DateLayout),
	})
}

func (g *Generator) render(m model.ReportModel, now time.Time) (artifact, error) {
	s, err := g.Layout(m, now)
	if err != nil {
		return artifact{}, err
	}

	doc := g.opts.NewDocument(render.PDFOptions{
		Title:      g.cat.Document.Title,
		Subject:    g.cat.Document.Subject,
		Author:     g.cat.Document.Author,
		Created:    now,
		NoCompress: g.opts.NoCompress,
	})
	data, err := render.Bytes(s.Commands(), doc)
	if err != nil {
		return artifact{}, err
	}

	if g.opts.Validate {
		pages, err := render.Validate(data)
		if err != nil {
			return artifact{}, err
		}
		if pages != s.Pages() {
			return artifact{}, &render.ArtifactError{
				Op:  "validate",
				Err: fmt.Errorf("%w: %d, want %d", ErrPageMismatch, pages, s.Pages()),
			}
		}
	}

	name, err := g.namer.Name(FileNameData{
		Date:     now.UTC().Format(defaults.DateLayout),
		TargetIP: m.Target.IP,
		ReportID: m.Metadata.ReportID,
	})
	if err != nil {
		return artifact{}, &render.ArtifactError{Op: "filename", Err: err}
	}

	return artifact{pdf: data, fileName: name, pages: s.Pages(), digest: s.Digest()}, nil
}

// fail emits the failed generation record and builds the failure result.
// m is nil when normalization itself did not complete.
func (g *Generator) fail(ctx context.Context, id string, root any, m *model.ReportModel, start time.Time, cause error) *Result {
	reportID, ip, count := g.bestEffort(root, m)
	rec := g.record(reportID, ip, count, events.StatusFailed)

	ev := events.NewGenerationEvent(id, rec)
	ev.Error = cause.Error()
	ev.DurationMs = g.opts.Now().Sub(start).Milliseconds()
	g.dispatch(ctx, ev)

	g.logger.Debug("report: generation failed",
		slog.String("generation_id", id),
		slog.String("error", cause.Error()))

	return &Result{
		Success:      false,
		Message:      MessageFailure,
		Error:        cause.Error(),
		GenerationID: id,
		Log:          rec,
		Err:          cause,
	}
}

// bestEffort recovers what it can from partial data for a failure record.
func (g *Generator) bestEffort(root any, m *model.ReportModel) (reportID, ip string, count int) {
	if m != nil {
		return m.Metadata.ReportID, m.Target.IP, m.Summary.Total
	}
	reportID = defaults.ReportIDPrefix + strconv.FormatInt(g.opts.Now().UnixMilli(), 10)
	ip = normalize.BestEffortTargetIP(root)
	func() {
		defer func() { _ = recover() }()
		reportID = normalize.Text(root, reportID, normalize.Path("reportId"), normalize.Path("report_id"))
		records, ok := normalize.Vulnerabilities(root)
		count = normalize.Summary(root, records, ok).Total
	}()
	return reportID, ip, count
}

func (g *Generator) record(reportID, ip string, count int, status events.Status) LogRecord {
	now := g.opts.Now().UTC()
	return LogRecord{
		ReportID:             reportID,
		TargetIP:             ip,
		GeneratedAt:          now.Format(time.RFC3339Nano),
		VulnerabilitiesCount: count,
		Status:               status,
		Timestamp:            now.UnixMilli(),
	}
}

func (g *Generator) emitDiagnostics(ctx context.Context, id string, diags []normalize.Diagnostic) {
	if g.opts.Events == nil {
		return
	}
	now := g.opts.Now().UTC()
	for _, d := range diags {
		g.dispatch(ctx, events.NewDiagnosticEvent(id, now, string(d.Kind), d.Field, d.Path, d.Message))
	}
}

func (g *Generator) dispatch(ctx context.Context, ev events.Event) {
	if g.opts.Events == nil {
		return
	}
	if err := g.opts.Events.Dispatch(ctx, ev); err != nil {
		g.logger.Warn("report: dispatch failed",
			slog.String("event", string(ev.EventType())),
			slog.String("error", err.Error()))
	}
}
