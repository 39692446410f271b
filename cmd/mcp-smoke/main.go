// Command mcp-smoke drives a vareport MCP server over stdio and checks
// every tool and resource end to end. It exits non-zero when any
// scenario fails.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vareport/vareport/pkg/jsonutil"
)

// scenario is a named check run against a live MCP session.
type scenario struct {
	name string
	fn   func(ctx context.Context, s *mcp.ClientSession) error
}

func main() {
	var (
		bin     = flag.String("bin", "vareport", "vareport binary to launch")
		outDir  = flag.String("o", "", "Report directory passed to the server (default: a temp dir)")
		timeout = flag.Duration("timeout", 60*time.Second, "Overall timeout")
		runOnly = flag.String("scenario", "", "Run only this named scenario")
	)
	flag.Parse()
	log.SetFlags(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dir := *outDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "vareport-smoke-*")
		if err != nil {
			log.Fatalf("FATAL temp dir: %v", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-smoke", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.CommandTransport{
		Command: exec.CommandContext(ctx, *bin, "mcp", "-o", dir, "--log-level", "warn"),
	}, nil)
	if err != nil {
		log.Fatalf("FATAL connect: %v", err)
	}
	defer session.Close()

	passed, failed := 0, 0
	for _, sc := range allScenarios() {
		if *runOnly != "" && sc.name != *runOnly {
			continue
		}
		if err := sc.fn(ctx, session); err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", sc.name, err)
			continue
		}
		passed++
		fmt.Printf("PASS  %s\n", sc.name)
	}

	fmt.Printf("\n--- %d passed, %d failed ---\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func allScenarios() []scenario {
	return []scenario{
		{"tool_discovery", scenarioToolDiscovery},
		{"resource_exploration", scenarioResources},
		{"parse_scan_text", scenarioParseScanText},
		{"normalize_input", scenarioNormalizeInput},
		{"generate_report", scenarioGenerateReport},
		{"error_handling", scenarioErrorHandling},
	}
}

func scenarioToolDiscovery(ctx context.Context, s *mcp.ClientSession) error {
	tools, err := s.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("ListTools: %w", err)
	}
	var names []string
	for _, t := range tools.Tools {
		if t.Description == "" {
			return fmt.Errorf("tool %q has empty description", t.Name)
		}
		if t.InputSchema == nil {
			return fmt.Errorf("tool %q has nil input schema", t.Name)
		}
		names = append(names, t.Name)
	}
	for _, want := range []string{"generate_report", "parse_scan_text", "normalize_input"} {
		if !slices.Contains(names, want) {
			return fmt.Errorf("missing tool %q (have %v)", want, names)
		}
	}
	return nil
}

func scenarioResources(ctx context.Context, s *mcp.ClientSession) error {
	for _, uri := range []string{"vareport://version", "vareport://catalogue", "vareport://generations"} {
		res, err := s.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
		if err != nil {
			return fmt.Errorf("ReadResource %s: %w", uri, err)
		}
		if len(res.Contents) == 0 || !jsonutil.Valid([]byte(res.Contents[0].Text)) {
			return fmt.Errorf("%s: expected a JSON document", uri)
		}
	}
	return nil
}

func scenarioParseScanText(ctx context.Context, s *mcp.ClientSession) error {
	body, err := callJSON(ctx, s, "parse_scan_text", map[string]any{
		"text": "22/tcp open ssh OpenSSH 8.2\n99999/tcp open bogus\nHost is up (0.002s latency).",
	})
	if err != nil {
		return err
	}
	if ports, _ := body["ports"].([]any); len(ports) != 1 {
		return fmt.Errorf("want 1 port, got %v", body["ports"])
	}
	if warnings, _ := body["warnings"].([]any); len(warnings) != 1 {
		return fmt.Errorf("want 1 warning for the out-of-range port, got %v", body["warnings"])
	}
	return nil
}

func scenarioNormalizeInput(ctx context.Context, s *mcp.ClientSession) error {
	body, err := callJSON(ctx, s, "normalize_input", map[string]any{
		"input": map[string]any{"target": map[string]any{"ip": "10.2.2.2"}},
	})
	if err != nil {
		return err
	}
	m, _ := body["model"].(map[string]any)
	target, _ := m["target"].(map[string]any)
	if target["ip"] != "10.2.2.2" {
		return fmt.Errorf("target ip not resolved: %v", target)
	}
	return nil
}

func scenarioGenerateReport(ctx context.Context, s *mcp.ClientSession) error {
	body, err := callJSON(ctx, s, "generate_report", map[string]any{
		"input": map[string]any{
			"reportId":    "VULN_SMOKE",
			"target":      map[string]any{"ip": "10.3.3.3"},
			"networkScan": map[string]any{"raw_output": "443/tcp open https"},
		},
	})
	if err != nil {
		return err
	}
	path, _ := body["path"].(string)
	if path == "" {
		return fmt.Errorf("no path in result: %v", body)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		return fmt.Errorf("%s is not a PDF", path)
	}
	return nil
}

func scenarioErrorHandling(ctx context.Context, s *mcp.ClientSession) error {
	res, err := callToolRaw(ctx, s, "parse_scan_text", map[string]any{"text": ""})
	if err != nil {
		return fmt.Errorf("empty text: %w", err)
	}
	if !res.IsError {
		return fmt.Errorf("empty text: expected IsError")
	}

	res, err = callToolRaw(ctx, s, "nonexistent_tool", map[string]any{})
	if err == nil && !res.IsError {
		return fmt.Errorf("nonexistent tool: expected error, got success")
	}
	return nil
}

func callToolRaw(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, error) {
	payload, err := jsonutil.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal %s args: %w", name, err)
	}
	return s.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: json.RawMessage(payload)})
}

// callJSON calls a tool that must succeed and decodes its JSON text.
func callJSON(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (map[string]any, error) {
	res, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	text := extractText(res)
	if res.IsError {
		return nil, fmt.Errorf("%s: tool error: %s", name, text)
	}
	var body map[string]any
	if err := jsonutil.Unmarshal([]byte(text), &body); err != nil {
		return nil, fmt.Errorf("%s: decode result: %w", name, err)
	}
	return body, nil
}

func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return fmt.Sprintf("%T", result.Content[0])
}
