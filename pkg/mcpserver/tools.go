package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vareport/vareport/pkg/normalize"
	"github.com/vareport/vareport/pkg/report"
	"github.com/vareport/vareport/pkg/scantext"
)

func (s *Server) registerTools() {
	s.addGenerateReportTool()
	s.addParseScanTextTool()
	s.addNormalizeInputTool()
}

// inputSchema describes the report input document. Every member is optional.
var inputSchema = map[string]any{
	"type":        "object",
	"description": "Report input document. Any member may be missing or malformed; defaults are substituted and reported as diagnostics.",
	"properties": map[string]any{
		"reportId": map[string]any{"type": "string", "description": "Report identifier. Defaults to VULN_<unix-ms>."},
		"target": map[string]any{
			"type":        "object",
			"description": "Target information: ip plus optional systemData (os, hostname, manufacturer, product, memory).",
		},
		"networkScan": map[string]any{
			"type":        "object",
			"description": "Structured scan (open_ports, services, host_info, scan_summary) and/or raw_output nmap text.",
		},
		"vulnerabilityAssessment": map[string]any{
			"type":        "object",
			"description": "vulnerabilities list or severity-grouped object, plus an optional summary.",
		},
		"recommendations": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
}

// ═══════════════════════════════════════════════════════════════════════════
// generate_report
// ═══════════════════════════════════════════════════════════════════════════

type generateReportArgs struct {
	Input any   `json:"input"`
	Save  *bool `json:"save"`
}

type generateReportSummary struct {
	Success         bool                   `json:"success"`
	Message         string                 `json:"message"`
	Error           string                 `json:"error,omitempty"`
	FileName        string                 `json:"file_name,omitempty"`
	Path            string                 `json:"path,omitempty"`
	Pages           int                    `json:"pages,omitzero"`
	Digest          string                 `json:"digest,omitempty"`
	ReportID        string                 `json:"report_id"`
	TargetIP        string                 `json:"target_ip"`
	Vulnerabilities int                    `json:"vulnerabilities_count"`
	GenerationID    string                 `json:"generation_id"`
	Diagnostics     []normalize.Diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) addGenerateReportTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "generate_report",
			Title: "Generate PDF Report",
			Description: `Render a vulnerability assessment report as a PDF.

USE THIS TOOL WHEN:
• You have target, scan and vulnerability data and want the final PDF
• The user asks for "a report", "the assessment document" or "export to PDF"

The PDF is written to the server's output directory unless save is false.
The result names the file, the page count, and any fields that fell back to defaults.

EXAMPLE INPUT:
{"input": {"reportId": "VULN_1", "target": {"ip": "10.0.0.5"}, "networkScan": {"raw_output": "22/tcp open ssh"}}}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"input": inputSchema,
					"save": map[string]any{
						"type":        "boolean",
						"description": "Write the PDF to the output directory.",
						"default":     true,
					},
				},
				"required": []string{"input"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   false,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Generate PDF Report",
			},
		},
		s.handleGenerateReport,
	)
}

func (s *Server) handleGenerateReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args generateReportArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected: {\"input\": {...}}", err)), nil
	}

	res := s.config.Generator.GenerateFrom(ctx, args.Input)
	summary := generateReportSummary{
		Success:         res.Success,
		Message:         res.Message,
		Error:           res.Error,
		FileName:        res.FileName,
		Pages:           res.Pages,
		Digest:          res.Digest,
		ReportID:        res.Log.ReportID,
		TargetIP:        res.Log.TargetIP,
		Vulnerabilities: res.Log.VulnerabilitiesCount,
		GenerationID:    res.GenerationID,
		Diagnostics:     res.Diagnostics,
	}
	if !res.Success {
		return jsonError(summary), nil
	}

	if args.Save == nil || *args.Save {
		path, err := report.SaveArtifact(s.config.OutputDir, res)
		if err != nil {
			s.logger.Error("mcp: save report", "file", res.FileName, "error", err)
			return errorResult(fmt.Sprintf("report generated but could not be saved: %v", err)), nil
		}
		summary.Path = path
	}
	return jsonResult(summary)
}

// ═══════════════════════════════════════════════════════════════════════════
// parse_scan_text
// ═══════════════════════════════════════════════════════════════════════════

type parseScanTextArgs struct {
	Text string `json:"text"`
}

func (s *Server) addParseScanTextTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "parse_scan_text",
			Title: "Parse Scan Text",
			Description: `Extract ports, services, host status and port counts from nmap-style scan text.

USE THIS TOOL WHEN:
• You have raw scanner output and want to see what the report will list
• Checking whether scan text is in a format the report understands

Lines such as "22/tcp open ssh OpenSSH 8.2" become port and service records.
Out-of-range port numbers are dropped and listed under warnings.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "Raw scan output.",
					},
				},
				"required": []string{"text"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Parse Scan Text",
			},
		},
		s.handleParseScanText,
	)
}

func (s *Server) handleParseScanText(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args parseScanTextArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected: {\"text\": \"...\"}", err)), nil
	}
	if strings.TrimSpace(args.Text) == "" {
		return errorResult("text is required. Pass the raw scanner output."), nil
	}
	return jsonResult(scantext.Parse(args.Text))
}

// ═══════════════════════════════════════════════════════════════════════════
// normalize_input
// ═══════════════════════════════════════════════════════════════════════════

type normalizeInputArgs struct {
	Input any `json:"input"`
}

func (s *Server) addNormalizeInputTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "normalize_input",
			Title: "Preview Report Model",
			Description: `Resolve a report input document to the exact model the PDF would render, without rendering.

USE THIS TOOL WHEN:
• You want to check how an input will be interpreted before generating
• You need to know which fields are missing or malformed

Returns {"model": {...}, "diagnostics": [...]}. Each diagnostic names the field, the input path and what was substituted.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"input": inputSchema,
				},
				"required": []string{"input"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: false,
				OpenWorldHint:  boolPtr(false),
				Title:          "Preview Report Model",
			},
		},
		s.handleNormalizeInput,
	)
}

func (s *Server) handleNormalizeInput(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args normalizeInputArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected: {\"input\": {...}}", err)), nil
	}
	m, diags := normalize.Build(args.Input, normalize.Options{TargetIP: s.config.TargetIP})
	if diags == nil {
		diags = []normalize.Diagnostic{}
	}
	return jsonResult(map[string]any{
		"model":       m,
		"diagnostics": diags,
	})
}
