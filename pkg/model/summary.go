package model

import "github.com/vareport/vareport/pkg/finding"

// VulnerabilitySummary counts findings by severity.
//
// When Derived is true the summary was computed from a record list and
// Total equals Sum(). A pre-aggregated summary keeps its Total as given.
type VulnerabilitySummary struct {
	Total    int  `json:"total"`
	Critical int  `json:"critical"`
	High     int  `json:"high"`
	Medium   int  `json:"medium"`
	Low      int  `json:"low"`
	Info     int  `json:"info"`
	Unknown  int  `json:"unknown"`
	Derived  bool `json:"derived"`
}

// SummarizeRecords derives a summary from records.
func SummarizeRecords(records []VulnerabilityRecord) VulnerabilitySummary {
	s := VulnerabilitySummary{Derived: true}
	for _, r := range records {
		s.add(r.Severity)
	}
	s.Total = s.Sum()
	return s
}

func (s *VulnerabilitySummary) add(sev finding.Severity) {
	switch sev {
	case finding.Critical:
		s.Critical++
	case finding.High:
		s.High++
	case finding.Medium:
		s.Medium++
	case finding.Low:
		s.Low++
	case finding.Info:
		s.Info++
	default:
		s.Unknown++
	}
}

// Count returns the count for sev.
func (s VulnerabilitySummary) Count(sev finding.Severity) int {
	switch sev {
	case finding.Critical:
		return s.Critical
	case finding.High:
		return s.High
	case finding.Medium:
		return s.Medium
	case finding.Low:
		return s.Low
	case finding.Info:
		return s.Info
	default:
		return s.Unknown
	}
}

// Sum adds the per-severity counts.
func (s VulnerabilitySummary) Sum() int {
	return s.Critical + s.High + s.Medium + s.Low + s.Info + s.Unknown
}
