// Command vareport turns vulnerability assessment data into PDF reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/ui"
)

type command struct {
	name    string
	aliases []string
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"generate", []string{"gen", "report"}, "Render a JSON input document to a PDF report", runGenerate},
	{"parse", nil, "Structure nmap-style scan text (ports, services, host)", runParse},
	{"fetch", nil, "Collect data from the upstream collaborator and render a report", runFetch},
	{"serve", []string{"server", "api"}, "Run the HTTP report API", runServe},
	{"mcp", nil, "Run the MCP server on stdio for AI assistants", runMCP},
	{"version", []string{"-v", "--version"}, "Print the version", runVersion},
}

// env carries the process streams so commands stay testable.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lookup func(string) (string, bool)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, &env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, lookup: os.LookupEnv}, os.Args[1:])
	cancel()
	os.Exit(code)
}

// run dispatches args and returns the process exit code.
func run(ctx context.Context, e *env, args []string) int {
	if len(args) == 0 {
		printUsage(e.stderr)
		return defaults.ExitUserError
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage(e.stderr)
		return defaults.ExitSuccess
	}

	cmd, ok := lookupCommand(args[0])
	if !ok {
		ui.PrintError(e.stderr, fmt.Sprintf("unknown command %q", args[0]))
		printUsage(e.stderr)
		return defaults.ExitUserError
	}

	if err := cmd.run(ctx, e, args[1:]); err != nil {
		var ex *exitError
		if errors.As(err, &ex) {
			if ex.msg != "" {
				ui.PrintError(e.stderr, ex.msg)
			}
			return ex.code
		}
		ui.PrintError(e.stderr, err.Error())
		return defaults.ExitInternalError
	}
	return defaults.ExitSuccess
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	ui.PrintBanner(w)
	fmt.Fprintln(w, ui.SectionStyle.Render("USAGE"))
	fmt.Fprintf(w, "  %s <command> [flags]\n\n", defaults.ToolName)
	fmt.Fprintln(w, ui.SectionStyle.Render("COMMANDS"))
	for _, c := range commands {
		fmt.Fprintf(w, "  %s  %s\n", ui.ConfigValueStyle.Render(fmt.Sprintf("%-9s", c.name)), c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.SectionStyle.Render("EXAMPLES"))
	fmt.Fprintf(w, "  %s generate -i assessment.json\n", defaults.ToolName)
	fmt.Fprintf(w, "  %s parse nmap.txt\n", defaults.ToolName)
	fmt.Fprintf(w, "  %s fetch --ip 10.0.0.5 --upstream http://localhost:5000\n", defaults.ToolName)
	fmt.Fprintf(w, "  %s serve --listen :8585\n", defaults.ToolName)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run '%s <command> -h' for command flags.\n", defaults.ToolName)
}

func runVersion(_ context.Context, e *env, _ []string) error {
	fmt.Fprintf(e.stdout, "%s %s\n", defaults.ToolName, defaults.Version)
	return nil
}
