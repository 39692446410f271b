package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/mcpserver"
)

// runMCP starts the MCP server on stdio for IDE and assistant
// integrations. Stdout carries the protocol, so logs go to stderr.
func runMCP(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var common commonFlags
	common.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: %s mcp [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(e.stderr, "Start an MCP server on stdio exposing generate_report, parse_scan_text\n")
		fmt.Fprintf(e.stderr, "and normalize_input.\n\n")
		fmt.Fprintf(e.stderr, "Example client configuration:\n")
		fmt.Fprintf(e.stderr, "  {\"command\": \"%s\", \"args\": [\"mcp\", \"-o\", \"/data/reports\"]}\n\n", defaults.ToolName)
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
	logger, err := newLogger(cfg, e.stderr)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, logger, true)
	if err != nil {
		return err
	}
	defer closePipeline(p, logger)

	srv, err := mcpserver.New(&mcpserver.Config{
		Generator: p.gen,
		OutputDir: cfg.Output.Dir,
		Catalogue: p.gen.Catalogue(),
		TargetIP:  cfg.Report.TargetIP,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	p.events.RegisterHook(srv.Hook())

	if err := srv.RunStdio(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
