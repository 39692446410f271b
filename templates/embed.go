// Package templates embeds the bundled report text catalogue.
//
// The generator falls back to these embedded files when no override is
// configured, so the binary is usable without any files on disk.
//
// Usage:
//
//	data, _ := templates.FS.ReadFile(templates.ReportCatalogue)
package templates

import "embed"

// ReportCatalogue is the path of the default report text catalogue in FS.
const ReportCatalogue = "report.yaml"

// FS contains the bundled template files.
//
//go:embed report.yaml
var FS embed.FS
