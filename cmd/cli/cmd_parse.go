package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/scantext"
	"github.com/vareport/vareport/pkg/ui"
)

func runParse(_ context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	asJSON := fs.Bool("json", false, "Print the parsed result as JSON on stdout")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: %s parse [flags] [file|-]\n\n", defaults.ToolName)
		fmt.Fprintf(e.stderr, "Extract ports, services and host status from nmap-style text.\n\n")
		fmt.Fprintf(e.stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	ui.SetNoColor(*noColor)

	name := "-"
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}
	data, err := readInput(e, name)
	if err != nil {
		return usageError("read scan text: %v", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return usageError("no scan text")
	}

	res := scantext.Parse(string(data))
	if *asJSON {
		out, err := jsonutil.MarshalIndent(res, "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, string(out))
		return nil
	}
	ui.PrintScan(e.stdout, res)
	return nil
}
