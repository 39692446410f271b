package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/vareport/vareport/pkg/api"
	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/health"
	"github.com/vareport/vareport/pkg/ratelimit"
	"github.com/vareport/vareport/pkg/ui"
)

func runServe(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var common commonFlags
	common.register(fs)
	listen := fs.String("listen", "", "Listen address (default "+defaults.ListenAddr+")")
	metrics := fs.Bool("metrics", false, "Expose Prometheus metrics at "+defaults.MetricsPath)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: %s serve [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(e.stderr, "Serve POST /api/v1/reports (JSON in, PDF out) and POST /api/v1/parse.\n\n")
		fmt.Fprintf(e.stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}

	cfg, err := common.load(fs, e.lookup)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Server.ListenAddr = *listen
	}
	if *metrics {
		cfg.Hooks.Prometheus = true
	}
	logger, err := newLogger(cfg, e.stderr)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, logger, true)
	if err != nil {
		return err
	}
	defer closePipeline(p, logger)

	var checks []health.Check
	if p.upstream != nil {
		probe, err := health.TCPProbe(p.upstream.BaseURL())
		if err != nil {
			return usageError("%v", err)
		}
		checks = append(checks, health.Check{Name: "upstream", Probe: probe, Optional: true})
	}

	var metricsHandler http.Handler
	if p.metrics != nil {
		metricsHandler = p.metrics.Handler()
	}

	srv := api.New(api.Options{
		Generator: p.gen,
		Metrics:   metricsHandler,
		Health:    health.NewChecker(0, checks...),
		Limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.Server.RateLimit,
			Burst:             cfg.Server.RateBurst,
		}),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ListenAddr:   cfg.Server.ListenAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       logger,
	})

	ui.PrintBanner(e.stderr)
	ui.PrintConfigLine(e.stderr, "Listen", cfg.Server.ListenAddr)
	ui.PrintConfigLine(e.stderr, "Rate limit", fmt.Sprintf("%.1f req/s, burst %d", cfg.Server.RateLimit, cfg.Server.RateBurst))
	if metricsHandler != nil {
		ui.PrintConfigLine(e.stderr, "Metrics", defaults.MetricsPath)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return exitWith(defaults.ExitNetworkError, "serve: %v", err)
	}
	return nil
}
