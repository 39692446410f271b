package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/report"
	"github.com/vareport/vareport/pkg/ui"
)

func runGenerate(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var common commonFlags
	common.register(fs)
	input := fs.String("i", "-", "Input JSON document (- for stdin)")
	scanText := fs.String("scan-text", "", "Raw scan output file used when the input has no networkScan.raw_output")
	toStdout := fs.Bool("stdout", false, "Write the PDF to stdout instead of the output directory")
	asJSON := fs.Bool("json", false, "Print the generation result as JSON on stdout")
	batch := fs.String("batch", "", "Render every *.json file in this directory")
	workers := fs.Int("workers", 0, "Concurrent renders in batch mode (default: GOMAXPROCS)")
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: %s generate [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(e.stderr, "Render a report input document to a PDF.\n\n")
		fmt.Fprintf(e.stderr, "Examples:\n")
		fmt.Fprintf(e.stderr, "  %s generate -i assessment.json -o ./reports\n", defaults.ToolName)
		fmt.Fprintf(e.stderr, "  cat assessment.json | %s generate --stdout > report.pdf\n", defaults.ToolName)
		fmt.Fprintf(e.stderr, "  %s generate --batch ./inputs --workers 4\n\n", defaults.ToolName)
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

	if *batch != "" {
		return runBatch(ctx, e, cfg, logger, *batch, *workers)
	}

	data, err := readInput(e, *input)
	if err != nil {
		return usageError("read input: %v", err)
	}

	p, err := newPipeline(cfg, logger, false)
	if err != nil {
		return err
	}
	defer closePipeline(p, logger)

	if !*toStdout && !*asJSON {
		ui.PrintBanner(e.stderr)
	}

	var res *report.Result
	if *scanText != "" {
		text, err := os.ReadFile(*scanText)
		if err != nil {
			return usageError("read scan text: %v", err)
		}
		res = p.gen.GenerateFrom(ctx, withScanText(data, string(text)))
	} else {
		res = p.gen.Generate(ctx, data)
	}

	return finishGeneration(e, res, cfg.Output.Dir, *toStdout, *asJSON)
}

// finishGeneration writes the artifact and reports the outcome.
func finishGeneration(e *env, res *report.Result, dir string, toStdout, asJSON bool) error {
	path := ""
	if res.Success {
		if toStdout {
			if _, err := e.stdout.Write(res.PDF); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}
			path = "-"
		} else {
			saved, err := report.SaveArtifact(dir, res)
			if err != nil {
				return err
			}
			path = saved
		}
	}

	if asJSON && !toStdout {
		out, err := jsonutil.MarshalIndent(res, "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, string(out))
	} else {
		ui.PrintResult(e.stderr, res, path)
	}

	if !res.Success {
		return &exitError{code: defaults.ExitGenerationFailed}
	}
	return nil
}

func readInput(e *env, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(e.stdin)
	}
	return os.ReadFile(name)
}

// withScanText decodes data and sets networkScan.raw_output to text when
// the document carries none. Undecodable or non-object input becomes an
// object holding only the scan text.
func withScanText(data []byte, text string) any {
	root, err := jsonutil.DecodeLoose(data)
	obj, ok := root.(map[string]any)
	if err != nil || !ok {
		obj = map[string]any{}
	}
	scan, ok := obj["networkScan"].(map[string]any)
	if !ok {
		scan = map[string]any{}
		obj["networkScan"] = scan
	}
	if raw, ok := scan["raw_output"].(string); !ok || raw == "" {
		scan["raw_output"] = text
	}
	return obj
}

// flagError maps flag parse failures to exit codes; -h is success.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return &exitError{code: defaults.ExitSuccess}
	}
	return &exitError{code: defaults.ExitUserError}
}
