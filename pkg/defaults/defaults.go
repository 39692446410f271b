// Package defaults provides canonical default values for the entire codebase.
// This is the single source of truth for fallback strings, sentinels and
// runtime configuration defaults.
//
// Usage:
//
//	ip := normalize.TargetIP(root) // falls back to defaults.TargetIP
//	req.Header.Set("Content-Type", defaults.ContentTypeJSON)
//
// Do not hardcode fallback strings such as "Unknown" or "N/A" elsewhere.
// Reference the constant from this package instead.
package defaults

// Version is the current vareport version
const Version = "1.3.0"

// ToolName is the canonical tool name used in User-Agent headers, metric
// prefixes and service names.
const ToolName = "vareport"

// ============================================================================
// SENTINELS
// ============================================================================
//
// Upstream collaborators use these strings to mean "no value". The
// normalizer treats them exactly like a missing key.
// ============================================================================

const (
	// Unknown is the display fallback for unresolved descriptive fields.
	Unknown = "Unknown"

	// NotAvailable is the display fallback for unresolved identifiers
	// such as CVSS scores and CVE IDs.
	NotAvailable = "N/A"
)

// Sentinels returns the string values treated as absent.
func Sentinels() []string {
	return []string{"", Unknown, NotAvailable}
}

// ============================================================================
// REPORT FALLBACKS
// ============================================================================

const (
	// TargetIP is used when no candidate path resolves a target address.
	TargetIP = "192.168.56.1"

	// FailureTargetIP is used when target extraction itself fails while
	// recording a failed generation.
	FailureTargetIP = Unknown

	// ReportIDPrefix prefixes generated report IDs (VULN_<unix-millis>).
	ReportIDPrefix = "VULN_"

	// ScanType is the network scan type when none is given.
	ScanType = "network_scan"

	// ScanStatus is the network scan status when none is given.
	ScanStatus = "completed"

	// PortService is the service name for port records without one.
	PortService = "unknown"

	// PortProtocol is the display protocol for structured ports without one.
	PortProtocol = "TCP"

	// PortState is the state for structured ports without one.
	PortState = "open"

	// ServiceVersion is the version of services without a version token.
	ServiceVersion = "unknown"

	// VulnerabilityTitle is the title of records without title or name.
	VulnerabilityTitle = "Unknown Vulnerability"

	// VulnerabilityDescription is used for records without a description.
	VulnerabilityDescription = "No description available"

	// AssessmentType is printed in the executive summary.
	AssessmentType = "Automated Vulnerability Assessment"

	// ReportStatus is printed on the cover page.
	ReportStatus = "Complete"
)

// ============================================================================
// OUTPUT SETTINGS
// ============================================================================

const (
	// OutputDir is the default directory for generated artifacts.
	OutputDir = "./reports"

	// FileNameTemplate renders the artifact file name. Fields: .Date
	// (YYYY-MM-DD) and .TargetIP.
	FileNameTemplate = `Vulnerability_Assessment_Report_{{ .Date }}_{{ .TargetIP | replace "." "_" }}.pdf`

	// DateLayout formats dates in file names and footers.
	DateLayout = "2006-01-02"

	// DateTimeLayout formats timestamps printed in the report body.
	DateTimeLayout = "2006-01-02 15:04:05 MST"

	// ContentTypeJSON is the Content-Type for JSON payloads.
	ContentTypeJSON = "application/json"

	// ContentTypePDF is the Content-Type for generated artifacts.
	ContentTypePDF = "application/pdf"
)

// ============================================================================
// SERVER SETTINGS
// ============================================================================

const (
	// ListenAddr is the default HTTP listen address.
	ListenAddr = ":8585"

	// RateLimit is the default number of requests per second per client.
	RateLimit = 5

	// RateBurst is the default burst size per client.
	RateBurst = 10

	// MaxBodyBytes bounds report input bodies (8 MiB).
	MaxBodyBytes = 8 << 20
)

// ============================================================================
// RETRY SETTINGS
// ============================================================================

const (
	// RetryNone disables retries (0)
	RetryNone = 0

	// RetryLow is for quick operations (2)
	RetryLow = 2

	// RetryMedium is the standard retry count (3)
	RetryMedium = 3
)

// ============================================================================
// EVENT STREAM SETTINGS
// ============================================================================

const (
	// NATSSubject is the default subject for generation log records.
	NATSSubject = "vareport.generations"

	// OTLPEndpoint is the default OpenTelemetry collector endpoint.
	OTLPEndpoint = "localhost:4317"

	// MetricsPath is the path serving Prometheus metrics.
	MetricsPath = "/metrics"
)
