package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
)

func (s *Server) registerResources() {
	s.addVersionResource()
	s.addCatalogueResource()
	s.addGenerationsResource()
}

func (s *Server) jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := jsonutil.MarshalIndent(v, "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

func (s *Server) addVersionResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         "vareport://version",
			Name:        "Version",
			Description: "Server version and available tools.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.jsonResource("vareport://version", map[string]any{
				"name":       defaults.ToolName,
				"version":    defaults.Version,
				"tools":      []string{"generate_report", "parse_scan_text", "normalize_input"},
				"output_dir": s.config.OutputDir,
			})
		},
	)
}

func (s *Server) addCatalogueResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         "vareport://catalogue",
			Name:        "Report Text Catalogue",
			Description: "Section titles, labels and footer text used in generated reports.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.jsonResource("vareport://catalogue", s.config.Catalogue)
		},
	)
}

func (s *Server) addGenerationsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         "vareport://generations",
			Name:        "Recent Generations",
			Description: fmt.Sprintf("The last %d generation log records, oldest first.", historySize),
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.jsonResource("vareport://generations", s.History())
		},
	)
}
