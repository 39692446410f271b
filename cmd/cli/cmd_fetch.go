package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/vareport/vareport/pkg/config"
	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/ui"
)

func runFetch(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var common commonFlags
	common.register(fs)
	ip := fs.String("ip", "", "Target address to assess (required)")
	saveInput := fs.String("save-input", "", "Also write the collected input document to this file")
	inputOnly := fs.Bool("input-only", false, "Print the collected input document on stdout and skip rendering")
	toStdout := fs.Bool("stdout", false, "Write the PDF to stdout instead of the output directory")
	asJSON := fs.Bool("json", false, "Print the generation result as JSON on stdout")
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: %s fetch --ip <addr> --upstream <url> [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(e.stderr, "Collect target info, a network scan and a vulnerability assessment from\n")
		fmt.Fprintf(e.stderr, "the upstream collaborator, then render the report.\n\n")
		fmt.Fprintf(e.stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	if net.ParseIP(*ip) == nil {
		return usageError("--ip must be an IP address, got %q", *ip)
	}

	cfg, err := common.load(fs, e.lookup)
	if err != nil {
		return err
	}
	if cfg.Upstream.BaseURL == "" {
		return usageError("an upstream URL is required (--upstream or %sUPSTREAM_URL)", config.EnvPrefix)
	}
	logger, err := newLogger(cfg, e.stderr)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, logger, false)
	if err != nil {
		return err
	}
	defer closePipeline(p, logger)

	if !*toStdout && !*asJSON && !*inputOnly {
		ui.PrintBanner(e.stderr)
		ui.PrintConfigLine(e.stderr, "Upstream", p.upstream.BaseURL())
		ui.PrintConfigLine(e.stderr, "Target", *ip)
	}

	doc, err := p.upstream.Fetch(ctx, *ip)
	if err != nil {
		return exitWith(defaults.ExitNetworkError, "collect assessment data: %v", err)
	}

	data, err := jsonutil.MarshalIndent(doc, "  ")
	if err != nil {
		return err
	}
	if *saveInput != "" {
		if err := os.WriteFile(*saveInput, data, 0o644); err != nil {
			return fmt.Errorf("save input: %w", err)
		}
	}
	if *inputOnly {
		fmt.Fprintln(e.stdout, string(data))
		return nil
	}

	res := p.gen.GenerateFrom(ctx, doc)
	return finishGeneration(e, res, cfg.Output.Dir, *toStdout, *asJSON)
}
