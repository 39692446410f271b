package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/vareport/vareport/pkg/config"
	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/output/dispatcher"
	"github.com/vareport/vareport/pkg/output/hooks"
	"github.com/vareport/vareport/pkg/output/writers"
	"github.com/vareport/vareport/pkg/report"
	"github.com/vareport/vareport/pkg/retry"
	"github.com/vareport/vareport/pkg/ui"
	"github.com/vareport/vareport/pkg/upstream"
)

// commonFlags are registered on every command that loads configuration.
type commonFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	silent     bool
	noColor    bool

	outputDir    string
	targetIP     string
	textFile     string
	validate     bool
	upstreamURL  string
	webhookURL   string
	natsURL      string
	otlpEndpoint string
	eventLog     string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
	fs.BoolVar(&f.silent, "silent", false, "Suppress banner and summaries")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")

	fs.StringVar(&f.outputDir, "o", "", "Output directory for reports")
	fs.StringVar(&f.targetIP, "target-ip", "", "Address used when the input has none")
	fs.StringVar(&f.textFile, "text", "", "YAML file overriding the report text catalogue")
	fs.BoolVar(&f.validate, "validate", false, "Validate the rendered PDF before writing it")
	fs.StringVar(&f.upstreamURL, "upstream", "", "Upstream collaborator base URL")
	fs.StringVar(&f.webhookURL, "webhook", "", "POST generation events to this URL")
	fs.StringVar(&f.natsURL, "nats", "", "Publish generation events to this NATS server")
	fs.StringVar(&f.otlpEndpoint, "otlp", "", "Export generation spans to this OTLP gRPC endpoint")
	fs.StringVar(&f.eventLog, "event-log", "", "Append events as JSON lines to this file")
}

// load resolves configuration: defaults, file, environment, then the
// flags the user actually set.
func (f *commonFlags) load(fs *flag.FlagSet, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, lookup)
	if err != nil {
		return nil, usageError("%v", err)
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "log-format":
			cfg.Log.Format = f.logFormat
		case "o":
			cfg.Output.Dir = f.outputDir
		case "target-ip":
			cfg.Report.TargetIP = f.targetIP
		case "text":
			cfg.Report.TextFile = f.textFile
		case "validate":
			cfg.Output.Validate = f.validate
		case "upstream":
			cfg.Upstream.BaseURL = f.upstreamURL
		case "webhook":
			cfg.Hooks.WebhookURL = f.webhookURL
		case "nats":
			cfg.Hooks.NATSURL = f.natsURL
		case "otlp":
			cfg.Hooks.OTLPEndpoint = f.otlpEndpoint
		case "event-log":
			cfg.Hooks.EventLog = f.eventLog
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, usageError("%v", err)
	}
	ui.SetSilent(f.silent)
	ui.SetNoColor(f.noColor)
	return cfg, nil
}

// newLogger builds the process logger on w.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, usageError("%v", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// pipeline is the generator plus the event consumers it reports to.
type pipeline struct {
	gen      *report.Generator
	events   *dispatcher.Dispatcher
	metrics  *hooks.PrometheusHook
	upstream *upstream.Client
}

// Close drains async hooks, then closes writers and hooks.
func (p *pipeline) Close() error { return p.events.Close() }

// newPipeline wires the dispatcher hooks named in cfg and builds the
// generator. async controls whether hooks run off the caller's goroutine.
func newPipeline(cfg *config.Config, logger *slog.Logger, async bool) (*pipeline, error) {
	p := &pipeline{events: dispatcher.New(dispatcher.Config{Async: async, Logger: logger})}
	fail := func(err error) (*pipeline, error) {
		_ = p.Close()
		return nil, err
	}

	p.events.RegisterHook(hooks.NewLogHook(hooks.LogOptions{Logger: logger}))

	if cfg.Hooks.EventLog != "" {
		w, err := writers.OpenJSONLFile(cfg.Hooks.EventLog, writers.JSONLOptions{})
		if err != nil {
			return fail(usageError("event log: %v", err))
		}
		p.events.RegisterWriter(w)
	}

	if cfg.Hooks.WebhookURL != "" {
		p.events.RegisterHook(hooks.NewWebhookHook(cfg.Hooks.WebhookURL, hooks.WebhookOptions{Logger: logger}))
	}

	if cfg.Hooks.Prometheus {
		h, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{Logger: logger})
		if err != nil {
			return fail(fmt.Errorf("prometheus: %w", err))
		}
		p.metrics = h
		p.events.RegisterHook(h)
	}

	if cfg.Hooks.OTLPEndpoint != "" {
		h, err := hooks.NewOTelHook(hooks.OTelOptions{Endpoint: cfg.Hooks.OTLPEndpoint, Insecure: true})
		if err != nil {
			return fail(fmt.Errorf("otel: %w", err))
		}
		p.events.RegisterHook(h)
	}

	if cfg.Hooks.NATSURL != "" {
		h, err := hooks.NewNATSHook(hooks.NATSOptions{
			URL:     cfg.Hooks.NATSURL,
			Subject: cfg.Hooks.NATSSubject,
			Logger:  logger,
		})
		if err != nil {
			if errors.Is(err, nats.ErrNoServers) {
				return fail(exitWith(defaults.ExitNetworkError, "nats: %v", err))
			}
			return fail(fmt.Errorf("nats: %w", err))
		}
		p.events.RegisterHook(h)
	}

	if cfg.Upstream.BaseURL != "" {
		rc := retry.DefaultConfig()
		rc.Retries = cfg.Upstream.Retries
		c, err := upstream.New(upstream.Options{
			BaseURL: cfg.Upstream.BaseURL,
			Timeout: cfg.Upstream.Timeout,
			Retry:   &rc,
			Logger:  logger,
		})
		if err != nil {
			return fail(usageError("upstream: %v", err))
		}
		p.upstream = c
		if cfg.Upstream.LogGenerations {
			p.events.RegisterHook(upstream.NewLogHook(c))
		}
	}

	opts := report.Options{
		Logger:           logger,
		Events:           p.events,
		FileNameTemplate: cfg.Output.FileNameTemplate,
		TargetIP:         cfg.Report.TargetIP,
		Validate:         cfg.Output.Validate,
		NoCompress:       !cfg.Output.Compress,
	}
	if cfg.Report.TextFile != "" {
		cat, err := report.LoadCatalogue(cfg.Report.TextFile)
		if err != nil {
			return fail(usageError("report text: %v", err))
		}
		opts.Catalogue = cat
	}
	gen, err := report.New(opts)
	if err != nil {
		return fail(usageError("%v", err))
	}
	p.gen = gen
	return p, nil
}

// closePipeline closes p and logs consumer errors.
func closePipeline(p *pipeline, logger *slog.Logger) {
	if err := p.Close(); err != nil {
		logger.Warn("closing event consumers", "error", err)
	}
}
