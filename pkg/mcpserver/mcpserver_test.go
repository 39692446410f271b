package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/output/events"
	"github.com/vareport/vareport/pkg/report"
)

var testNow = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

type failingGenerator struct{}

func (failingGenerator) GenerateFrom(context.Context, any) *report.Result {
	return &report.Result{
		Success:      false,
		Message:      report.MessageFailure,
		Error:        "render: boom",
		GenerationID: "gen-fail",
		Log: report.LogRecord{
			ReportID: "VULN_X",
			TargetIP: "Unknown",
			Status:   events.StatusFailed,
		},
	}
}

func newServer(t *testing.T, gen Generator) (*Server, string) {
	t.Helper()
	if gen == nil {
		g, err := report.New(report.Options{
			Now:   func() time.Time { return testNow },
			NewID: func() string { return "gen-1" },
		})
		require.NoError(t, err)
		gen = g
	}
	dir := t.TempDir()
	srv, err := New(&Config{Generator: gen, OutputDir: dir})
	require.NoError(t, err)
	return srv, dir
}

func connect(t *testing.T, srv *Server) *mcp.ClientSession {
	t.Helper()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	client := mcp.NewClient(&mcp.Implementation{
		Name: "test-client", Version: "0.0.1",
	}, nil)

	ctx := context.Background()
	go func() { _ = srv.MCPServer().Run(ctx, serverTransport) }()

	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name, args string) (*mcp.CallToolResult, map[string]any) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: json.RawMessage(args),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var body map[string]any
	if jsonutil.Valid([]byte(text.Text)) {
		require.NoError(t, jsonutil.Unmarshal([]byte(text.Text), &body))
	}
	return res, body
}

func TestNew_RequiresGenerator(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&Config{})
	assert.Error(t, err)
}

func TestListTools(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, nil)
	cs := connect(t, srv)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"generate_report", "parse_scan_text", "normalize_input"}, names)
}

func TestGenerateReport_SavesArtifact(t *testing.T) {
	t.Parallel()

	srv, dir := newServer(t, nil)
	cs := connect(t, srv)

	res, body := call(t, cs, "generate_report", `{"input": {
		"reportId": "VULN_MCP",
		"target": {"ip": "10.0.0.5"},
		"networkScan": {"raw_output": "22/tcp open ssh OpenSSH 8.2"}
	}}`)
	require.False(t, res.IsError)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "VULN_MCP", body["report_id"])
	assert.Equal(t, "10.0.0.5", body["target_ip"])
	assert.Equal(t, "gen-1", body["generation_id"])
	assert.Equal(t, "Vulnerability_Assessment_Report_2025-03-01_10_0_0_5.pdf", body["file_name"])

	path := filepath.Join(dir, "Vulnerability_Assessment_Report_2025-03-01_10_0_0_5.pdf")
	assert.Equal(t, path, body["path"])
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerateReport_NoSave(t *testing.T) {
	t.Parallel()

	srv, dir := newServer(t, nil)
	cs := connect(t, srv)

	res, body := call(t, cs, "generate_report", `{"input": {}, "save": false}`)
	require.False(t, res.IsError)
	assert.Nil(t, body["path"])
	assert.NotEmpty(t, body["diagnostics"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateReport_Failure(t *testing.T) {
	t.Parallel()

	srv, dir := newServer(t, failingGenerator{})
	cs := connect(t, srv)

	res, body := call(t, cs, "generate_report", `{"input": {}}`)
	assert.True(t, res.IsError)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, report.MessageFailure, body["message"])
	assert.Equal(t, "render: boom", body["error"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseScanText(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, nil)
	cs := connect(t, srv)

	res, body := call(t, cs, "parse_scan_text", `{"text": "22/tcp open ssh OpenSSH 8.2\n80/tcp closed http\nHost is up (0.0012s latency)."}`)
	require.False(t, res.IsError)

	ports, ok := body["ports"].([]any)
	require.True(t, ok)
	assert.Len(t, ports, 2)
	host, ok := body["host_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "up", host["status"])
}

func TestParseScanText_EmptyText(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, nil)
	cs := connect(t, srv)

	res, _ := call(t, cs, "parse_scan_text", `{"text": "   "}`)
	assert.True(t, res.IsError)
}

func TestNormalizeInput(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, nil)
	cs := connect(t, srv)

	res, body := call(t, cs, "normalize_input", `{"input": {"target": {"ip": "10.1.1.1"}}}`)
	require.False(t, res.IsError)

	m, ok := body["model"].(map[string]any)
	require.True(t, ok)
	target, ok := m["target"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "10.1.1.1", target["ip"])
	assert.NotEmpty(t, body["diagnostics"])
}

func TestResources(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, nil)
	cs := connect(t, srv)

	for _, uri := range []string{"vareport://version", "vareport://catalogue", "vareport://generations"} {
		res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: uri})
		require.NoError(t, err, uri)
		require.Len(t, res.Contents, 1, uri)
		assert.Equal(t, "application/json", res.Contents[0].MIMEType, uri)
		assert.True(t, jsonutil.Valid([]byte(res.Contents[0].Text)), uri)
	}
}

func TestHook_RecordsBoundedHistory(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, nil)
	hook := srv.Hook()
	assert.Equal(t, []events.EventType{events.EventTypeGeneration}, hook.EventTypes())

	for i := range historySize + 5 {
		ev := events.NewGenerationEvent("gen", events.GenerationRecord{
			ReportID: fmt.Sprintf("VULN_%d", i),
			Status:   events.StatusSuccess,
		})
		require.NoError(t, hook.OnEvent(context.Background(), ev))
	}
	require.NoError(t, hook.OnEvent(context.Background(),
		events.NewDiagnosticEvent("gen", testNow, "fallback", "reportId", "", "defaulted")))

	history := srv.History()
	require.Len(t, history, historySize)
	assert.Equal(t, "VULN_5", history[0].ReportID)
	assert.Equal(t, fmt.Sprintf("VULN_%d", historySize+4), history[historySize-1].ReportID)
}
