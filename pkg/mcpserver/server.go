package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/output/events"
	"github.com/vareport/vareport/pkg/report"
)

// historySize bounds the generation records kept for vareport://generations.
const historySize = 20

// Generator produces reports from decoded input. *report.Generator is one.
type Generator interface {
	GenerateFrom(ctx context.Context, root any) *report.Result
}

// Config holds MCP server configuration.
type Config struct {
	// Generator renders reports. Required.
	Generator Generator

	// OutputDir receives generated PDFs (default: defaults.OutputDir).
	OutputDir string

	// Catalogue is served as vareport://catalogue. Defaults to the
	// embedded catalogue.
	Catalogue *report.Catalogue

	// TargetIP is the address fallback used by normalize_input.
	TargetIP string

	Logger *slog.Logger
}

// Server wraps the MCP server with vareport functionality.
type Server struct {
	mcp    *mcp.Server
	config *Config
	logger *slog.Logger

	mu      sync.Mutex
	history []events.GenerationRecord
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// New creates a new MCP server with all tools and resources registered.
func New(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Generator == nil {
		return nil, fmt.Errorf("mcpserver: a Generator is required")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	if cfg.Catalogue == nil {
		cat, err := report.DefaultCatalogue()
		if err != nil {
			return nil, err
		}
		cfg.Catalogue = cat
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{config: cfg, logger: logger}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   "Vulnerability Assessment Report Server",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// RunStdio runs the MCP server over stdio transport.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("mcp: serving on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// record appends a generation record to the bounded history.
func (s *Server) record(rec events.GenerationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, rec)
	if over := len(s.history) - historySize; over > 0 {
		s.history = append([]events.GenerationRecord(nil), s.history[over:]...)
	}
}

// History returns the recent generation records, oldest first.
func (s *Server) History() []events.GenerationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.GenerationRecord{}, s.history...)
}

// ---------------------------------------------------------------------------
// Result helpers
// ---------------------------------------------------------------------------

// textResult wraps text in a CallToolResult.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError CallToolResult so the LLM can see the error
// and self-correct rather than raising a protocol-level exception.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// jsonError is errorResult with a JSON body.
func jsonError(v any) *mcp.CallToolResult {
	res, err := jsonResult(v)
	if err != nil {
		return errorResult(err.Error())
	}
	res.IsError = true
	return res
}

func boolPtr(b bool) *bool { return &b }

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

const serverInstructions = `You are operating vareport, which turns vulnerability assessment data into a paginated PDF report.

WORKFLOW:
1. If you only have raw nmap-style scan text, call parse_scan_text to see what ports and services it contains.
2. Call normalize_input with the assembled input document to preview the report model and any diagnostics (fields that fell back to defaults).
3. Call generate_report with the same document to write the PDF. The result names the file and the page count.

INPUT DOCUMENT SHAPE (every part optional):
{"reportId": "...", "target": {"ip": "10.0.0.5", "systemData": {...}},
 "networkScan": {"open_ports": {...}, "raw_output": "..."},
 "vulnerabilityAssessment": {"vulnerabilities": [{"title": "...", "severity": "high", "port": 22, "cvss_score": 5.3, "cve_id": "CVE-..."}]},
 "recommendations": ["..."]}

Missing or malformed fields never fail generation; they are reported as diagnostics and replaced by defaults.`
