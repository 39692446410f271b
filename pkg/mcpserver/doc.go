// Package mcpserver exposes vareport as a Model Context Protocol (MCP)
// server, so AI assistants can turn assessment data into reports.
//
// # Tools
//
//   - generate_report: render a report input document to a PDF in the
//     configured output directory
//   - parse_scan_text: structure nmap-style scan text
//   - normalize_input: resolve an input document to the report model
//     without rendering, with diagnostics
//
// # Resources
//
//   - vareport://version      server version and tool inventory
//   - vareport://catalogue    the report text catalogue in use
//   - vareport://generations  the most recent generation records
//
// # Usage
//
//	srv := mcpserver.New(&mcpserver.Config{Generator: gen, OutputDir: "./reports"})
//	err := srv.RunStdio(ctx)
package mcpserver
