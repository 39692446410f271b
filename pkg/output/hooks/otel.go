package hooks

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/duration"
	"github.com/vareport/vareport/pkg/output/dispatcher"
	"github.com/vareport/vareport/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*OTelHook)(nil)

// SpanName is the name of the span recorded per generation.
const SpanName = "vareport.generate"

// maxPendingGenerations bounds diagnostics buffered for generations whose
// record has not arrived yet.
const maxPendingGenerations = 256

// OTelHook exports one span per generation to an OpenTelemetry collector.
// Diagnostics of a generation are buffered and attached to its span as
// span events when the generation record arrives.
type OTelHook struct {
	opts           OTelOptions
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	mu      sync.Mutex
	pending map[string][]*events.DiagnosticEvent
	order   []string
	closed  bool
}

// OTelOptions configures the OpenTelemetry hook behavior.
type OTelOptions struct {
	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// ServiceName is the service name for traces (default: "vareport").
	ServiceName string

	// Insecure uses insecure connection (no TLS).
	Insecure bool

	// Headers contains additional headers for the OTLP exporter.
	Headers map[string]string

	// ShutdownTimeout is the timeout for graceful shutdown (default: 5s).
	ShutdownTimeout time.Duration

	// ConnectionTimeout is the timeout for establishing connection (default: 10s).
	ConnectionTimeout time.Duration

	// Exporter replaces the OTLP exporter. Spans are exported
	// synchronously when it is set.
	Exporter sdktrace.SpanExporter
}

// NewOTelHook creates a new OpenTelemetry hook. Without an Exporter it
// dials the OTLP endpoint and installs the provider globally.
func NewOTelHook(opts OTelOptions) (*OTelHook, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaults.OTLPEndpoint
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = duration.WebhookShutdown
	}
	if opts.ConnectionTimeout == 0 {
		opts.ConnectionTimeout = duration.WebhookTimeout
	}

	// Avoid merging with resource.Default to prevent schema conflicts.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "report-generator"),
	)

	var tracerProvider *sdktrace.TracerProvider
	if opts.Exporter != nil {
		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(opts.Exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
	} else {
		exporter, err := newOTLPExporter(opts)
		if err != nil {
			return nil, err
		}
		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tracerProvider)
	}

	return &OTelHook{
		opts:           opts,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(defaults.ToolName + "/report"),
		pending:        make(map[string][]*events.DiagnosticEvent),
	}, nil
}

func newOTLPExporter(opts OTelOptions) (sdktrace.SpanExporter, error) {
	grpcOpts := []grpc.DialOption{}
	if opts.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithDialOption(grpcOpts...),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectionTimeout)
	defer cancel()
	return otlptracegrpc.New(ctx, exporterOpts...)
}

// OnEvent buffers diagnostics and records a span for each generation.
func (h *OTelHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.DiagnosticEvent:
		h.buffer(e)
	case *events.GenerationEvent:
		h.record(ctx, e)
	}
	return nil
}

func (h *OTelHook) buffer(d *events.DiagnosticEvent) {
	id := d.GenerationID()
	if _, ok := h.pending[id]; !ok {
		if len(h.order) >= maxPendingGenerations {
			delete(h.pending, h.order[0])
			h.order = h.order[1:]
		}
		h.order = append(h.order, id)
	}
	h.pending[id] = append(h.pending[id], d)
}

func (h *OTelHook) record(ctx context.Context, e *events.GenerationEvent) {
	end := e.Timestamp()
	start := end.Add(-time.Duration(e.DurationMs) * time.Millisecond)

	_, span := h.tracer.Start(ctx, SpanName,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("generation_id", e.GenerationID()),
			attribute.String("report_id", e.Record.ReportID),
			attribute.String("target_ip", e.Record.TargetIP),
			attribute.Int("vulnerabilities", e.Record.VulnerabilitiesCount),
			attribute.String("status", string(e.Record.Status)),
			attribute.Int("pages", e.Pages),
			attribute.String("file_name", e.FileName),
		),
	)

	id := e.GenerationID()
	for _, d := range h.pending[id] {
		span.AddEvent("diagnostic",
			trace.WithTimestamp(d.Timestamp()),
			trace.WithAttributes(
				attribute.String("kind", d.Kind),
				attribute.String("field", d.Field),
				attribute.String("path", d.Path),
				attribute.String("message", d.Message),
			))
	}
	h.forget(id)

	if e.Failed() {
		span.SetStatus(codes.Error, e.Error)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

func (h *OTelHook) forget(id string) {
	if _, ok := h.pending[id]; !ok {
		return
	}
	delete(h.pending, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// EventTypes returns the event types this hook handles.
func (h *OTelHook) EventTypes() []events.EventType {
	return []events.EventType{events.EventTypeGeneration, events.EventTypeDiagnostic}
}

// Close flushes pending spans and shuts the tracer provider down.
func (h *OTelHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.ShutdownTimeout)
	defer cancel()
	return h.tracerProvider.Shutdown(ctx)
}

// Endpoint returns the configured OTLP endpoint.
func (h *OTelHook) Endpoint() string {
	return h.opts.Endpoint
}

// ServiceName returns the configured service name.
func (h *OTelHook) ServiceName() string {
	return h.opts.ServiceName
}
