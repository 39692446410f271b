// Package model defines the canonical report model: the fully typed
// representation of one report, built once per generation call by the
// normalizer and read (never written) by the layout code.
package model

import (
	"strings"

	"github.com/vareport/vareport/pkg/finding"
)

// MaxPort is the largest valid port number.
const MaxPort = 65535

// TargetInfo describes the assessed host. Unresolved fields hold
// defaults.Unknown.
type TargetInfo struct {
	IP          string `json:"ip"`
	OS          string `json:"os"`
	Hostname    string `json:"hostname"`
	SystemType  string `json:"system_type"`
	TotalMemory string `json:"total_memory"`
}

// Protocol is a transport protocol.
type Protocol string

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// ParseProtocol accepts tcp and udp in any case.
func ParseProtocol(raw string) (Protocol, bool) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(raw))); p {
	case TCP, UDP:
		return p, true
	}
	return "", false
}

// PortState is the observed state of a port.
type PortState string

const (
	Open     PortState = "open"
	Closed   PortState = "closed"
	Filtered PortState = "filtered"
)

// ParsePortState accepts open, closed and filtered in any case.
func ParsePortState(raw string) (PortState, bool) {
	switch s := PortState(strings.ToLower(strings.TrimSpace(raw))); s {
	case Open, Closed, Filtered:
		return s, true
	}
	return "", false
}

// ValidPort reports whether p is in 0..65535.
func ValidPort(p int) bool {
	return p >= 0 && p <= MaxPort
}

// PortRecord is one scanned port.
type PortRecord struct {
	Port     int       `json:"port"`
	Protocol Protocol  `json:"protocol"`
	State    PortState `json:"state"`
	Service  string    `json:"service"`
}

// ServiceRecord is a detected service, unique by Name.
type ServiceRecord struct {
	Name     string   `json:"name"`
	Port     int      `json:"port"`
	Protocol Protocol `json:"protocol"`
	Version  string   `json:"version"`
}

// HostStatus is the reachability of the scanned host.
type HostStatus string

const (
	HostUp      HostStatus = "up"
	HostUnknown HostStatus = "unknown"
)

// HostInfo holds host-level scan facts. Empty Latency or MACAddress means
// the value was not observed.
type HostInfo struct {
	Status     HostStatus `json:"status"`
	Latency    string     `json:"latency,omitempty"`
	MACAddress string     `json:"mac_address,omitempty"`
}

// ScanSummary counts port lines by state.
type ScanSummary struct {
	TotalScanned int `json:"total_ports_scanned"`
	Open         int `json:"open_ports_count"`
	Closed       int `json:"closed_ports_count"`
	Filtered     int `json:"filtered_ports_count"`
}

// NetworkScanResult is the normalized network scan.
type NetworkScanResult struct {
	ScanType  string          `json:"scan_type"`
	Status    string          `json:"status"`
	Timestamp string          `json:"scan_timestamp"`
	Ports     []PortRecord    `json:"ports"`
	Services  []ServiceRecord `json:"services"`
	Host      HostInfo        `json:"host_info"`
	Summary   ScanSummary     `json:"scan_summary"`
}

// VulnerabilityRecord is one finding. Port, CVSSScore and CVEID are
// display strings because upstream sources mix numbers and text.
type VulnerabilityRecord struct {
	Title       string           `json:"title"`
	Severity    finding.Severity `json:"severity"`
	Port        string           `json:"port"`
	CVSSScore   string           `json:"cvss_score"`
	CVEID       string           `json:"cve_id"`
	Description string           `json:"description"`
}

// ReportMetadata identifies one report.
type ReportMetadata struct {
	ReportID    string `json:"report_id"`
	GeneratedAt string `json:"generated_at"`
}

// ReportModel aggregates everything rendered into one report.
type ReportModel struct {
	Metadata        ReportMetadata        `json:"metadata"`
	Target          TargetInfo            `json:"target"`
	Network         NetworkScanResult     `json:"network_scan"`
	Vulnerabilities []VulnerabilityRecord `json:"vulnerabilities"`
	Summary         VulnerabilitySummary  `json:"summary"`
	Recommendations []string              `json:"recommendations"`
}

// Add counts one port line in state.
func (s *ScanSummary) Add(state PortState) {
	switch state {
	case Open:
		s.Open++
	case Closed:
		s.Closed++
	case Filtered:
		s.Filtered++
	}
}
