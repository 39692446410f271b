// Package report assembles vulnerability assessment reports.
//
// The package is organized by logical concern across multiple files:
//
// # Generation (generator.go)
//
// Generator, Options, Result. Generate decodes an input document, builds
// the canonical model, lays out the six report sections, stamps footers
// and serializes the PDF. Every call emits diagnostic events and exactly
// one generation event on the configured dispatcher.
//
// # Sections (sections.go)
//
// Cover, executive summary, target information, network scan results,
// vulnerability detail and recommendations, built from layout blocks.
//
// # Text Catalogue (catalogue.go)
//
// Catalogue holds every user-facing string of the report. The default is
// embedded from templates/report.yaml and can be overridden by file.
//
// # Artifacts (artifact.go)
//
// FileName renders the artifact file name template; SaveArtifact writes
// the PDF without ever leaving a partial file behind.
package report
