package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/duration"
	"github.com/vareport/vareport/pkg/output/dispatcher"
	"github.com/vareport/vareport/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*PrometheusHook)(nil)

// PrometheusHook records generation metrics in a private registry.
// Handler exposes them for scraping; when ListenAddr is set the hook
// also runs its own metrics server until Close.
type PrometheusHook struct {
	server   *http.Server
	registry *prometheus.Registry
	opts     PrometheusOptions
	logger   *slog.Logger

	generationsTotal  *prometheus.CounterVec
	diagnosticsTotal  *prometheus.CounterVec
	vulnerabilities   prometheus.Counter
	pages             prometheus.Histogram
	durationSeconds   *prometheus.HistogramVec
	lastGenerationSec prometheus.Gauge

	mu     sync.Mutex
	closed bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// ListenAddr starts a dedicated metrics server when non-empty
	// (e.g. ":9090").
	ListenAddr string

	// Path for the metrics endpoint (default: "/metrics").
	Path string

	// ReadTimeout for the HTTP server (default: 5s).
	ReadTimeout time.Duration

	// WriteTimeout for the HTTP server (default: 10s).
	WriteTimeout time.Duration

	// Logger receives metrics server errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewPrometheusHook creates a Prometheus hook and registers its metrics.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	if opts.Path == "" {
		opts.Path = defaults.MetricsPath
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = duration.WebhookShutdown
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = duration.WebhookTimeout
	}

	// Create custom registry (don't pollute default)
	hook := &PrometheusHook{
		registry: prometheus.NewRegistry(),
		opts:     opts,
		logger:   orDefault(opts.Logger),
	}

	if err := hook.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if opts.ListenAddr != "" {
		hook.startServer()
	}

	return hook, nil
}

// initMetrics creates and registers all Prometheus metrics.
func (h *PrometheusHook) initMetrics() error {
	prefix := defaults.ToolName + "_"

	h.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "generations_total",
			Help: "Total number of report generations by status",
		},
		[]string{"status"},
	)

	h.diagnosticsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "diagnostics_total",
			Help: "Total number of recovered input problems by kind",
		},
		[]string{"kind"},
	)

	h.vulnerabilities = prometheus.NewCounter(prometheus.CounterOpts{
		Name: prefix + "vulnerabilities_reported_total",
		Help: "Total number of vulnerability records rendered into reports",
	})

	h.pages = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    prefix + "report_pages",
		Help:    "Page count distribution of generated reports",
		Buckets: []float64{1, 2, 4, 6, 8, 12, 16, 24, 32, 64},
	})

	h.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "generation_duration_seconds",
			Help:    "Report generation time distribution in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"status"},
	)

	h.lastGenerationSec = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: prefix + "last_generation_timestamp_seconds",
		Help: "Unix time of the most recent generation",
	})

	collectors := []prometheus.Collector{
		h.generationsTotal,
		h.diagnosticsTotal,
		h.vulnerabilities,
		h.pages,
		h.durationSeconds,
		h.lastGenerationSec,
	}

	for _, c := range collectors {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// Handler serves the hook's registry in the Prometheus exposition format.
func (h *PrometheusHook) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the hook's private registry.
func (h *PrometheusHook) Registry() *prometheus.Registry {
	return h.registry
}

func (h *PrometheusHook) startServer() {
	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, h.Handler())

	h.server = &http.Server{
		Addr:         h.opts.ListenAddr,
		Handler:      mux,
		ReadTimeout:  h.opts.ReadTimeout,
		WriteTimeout: h.opts.WriteTimeout,
	}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("prometheus: metrics server error", slog.String("error", err.Error()))
		}
	}()
}

// OnEvent updates the metrics for generation and diagnostic events.
func (h *PrometheusHook) OnEvent(_ context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.GenerationEvent:
		status := string(e.Record.Status)
		h.generationsTotal.WithLabelValues(status).Inc()
		h.durationSeconds.WithLabelValues(status).Observe(float64(e.DurationMs) / 1000)
		h.lastGenerationSec.Set(float64(e.Timestamp().Unix()))
		if !e.Failed() {
			h.vulnerabilities.Add(float64(e.Record.VulnerabilitiesCount))
			h.pages.Observe(float64(e.Pages))
		}
	case *events.DiagnosticEvent:
		h.diagnosticsTotal.WithLabelValues(e.Kind).Inc()
	}
	return nil
}

// EventTypes returns nil to receive all event types.
func (h *PrometheusHook) EventTypes() []events.EventType {
	return nil
}

// Close stops the metrics server if one was started.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), duration.WebhookShutdown)
	defer cancel()
	return h.server.Shutdown(ctx)
}
