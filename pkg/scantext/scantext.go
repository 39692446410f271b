// Package scantext converts freeform, line-oriented port scan output (the
// nmap-style text some scan collaborators return) into structured port,
// service and host records.
//
// Every rule applies to each line independently of line order. Lines that
// match no rule are ignored, and Parse never fails: absent patterns leave
// the corresponding field at its default.
package scantext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/model"
	"github.com/vareport/vareport/pkg/strutil"
)

var (
	portLine    = regexp.MustCompile(`(?i)(\d+)/(tcp|udp)\s+(open|closed|filtered)\s*(.*)`)
	serviceLine = regexp.MustCompile(`(?i)(\d+)/(tcp|udp)\s+open\s+(\w+)`)
	versionTok  = regexp.MustCompile(`(?i)version\s+([^\s,]+)`)
	hostUp      = regexp.MustCompile(`(?i)host is up`)
	latency     = regexp.MustCompile(`(?i)(\d+\.?\d*)s\s+latency`)
	macAddress  = regexp.MustCompile(`([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})`)
	scanned     = regexp.MustCompile(`(?i)(\d+)\s+ports?\s+scanned`)
)

// Result is the structured form of one scan text.
type Result struct {
	Ports    []model.PortRecord    `json:"ports"`
	Services []model.ServiceRecord `json:"services"`
	Host     model.HostInfo        `json:"host_info"`
	Summary  model.ScanSummary     `json:"scan_summary"`

	// Warnings describes matched lines that were dropped, such as port
	// numbers outside 0-65535.
	Warnings []string `json:"warnings,omitempty"`
}

// Parse extracts records from text.
func Parse(text string) Result {
	res := Result{
		Ports:    []model.PortRecord{},
		Services: []model.ServiceRecord{},
		Host:     model.HostInfo{Status: model.HostUnknown},
	}
	seen := make(map[string]bool)

	for i, line := range strings.Split(strutil.ToUTF8(text), "\n") {
		line = strings.TrimRight(line, "\r")

		if m := portLine.FindStringSubmatch(line); m != nil {
			if rec, ok := portRecord(m); ok {
				res.Ports = append(res.Ports, rec)
				res.Summary.Add(rec.State)
			} else {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: port %s out of range", i+1, m[1]))
			}
		}

		if m := serviceLine.FindStringSubmatch(line); m != nil && !seen[m[3]] {
			if svc, ok := serviceRecord(m, line); ok {
				seen[svc.Name] = true
				res.Services = append(res.Services, svc)
			}
		}

		if hostUp.MatchString(line) {
			res.Host.Status = model.HostUp
		}
		if m := latency.FindStringSubmatch(line); m != nil {
			res.Host.Latency = m[1] + "s"
		}
		if mac := macAddress.FindString(line); mac != "" {
			res.Host.MACAddress = mac
		}
		if m := scanned.FindStringSubmatch(line); m != nil && res.Summary.TotalScanned == 0 {
			res.Summary.TotalScanned, _ = strconv.Atoi(m[1])
		}
	}

	return res
}

func portRecord(m []string) (model.PortRecord, bool) {
	port, err := strconv.Atoi(m[1])
	if err != nil || !model.ValidPort(port) {
		return model.PortRecord{}, false
	}
	proto, _ := model.ParseProtocol(m[2])
	state, _ := model.ParsePortState(m[3])
	service := strings.TrimSpace(m[4])
	if service == "" {
		service = defaults.PortService
	}
	return model.PortRecord{Port: port, Protocol: proto, State: state, Service: service}, true
}

func serviceRecord(m []string, line string) (model.ServiceRecord, bool) {
	port, err := strconv.Atoi(m[1])
	if err != nil || !model.ValidPort(port) {
		return model.ServiceRecord{}, false
	}
	proto, _ := model.ParseProtocol(m[2])
	version := defaults.ServiceVersion
	if v := versionTok.FindStringSubmatch(line); v != nil {
		version = v[1]
	}
	return model.ServiceRecord{Name: m[3], Port: port, Protocol: proto, Version: version}, true
}
