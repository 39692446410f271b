package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vareport/vareport/templates"
)

// Catalogue holds the user-facing strings of a report.
type Catalogue struct {
	Document        DocumentText        `yaml:"document" json:"document"`
	Cover           CoverText           `yaml:"cover" json:"cover"`
	Executive       ExecutiveText       `yaml:"executive" json:"executive"`
	Target          TargetText          `yaml:"target" json:"target"`
	Network         NetworkText         `yaml:"network" json:"network"`
	Vulnerabilities VulnerabilitiesText `yaml:"vulnerabilities" json:"vulnerabilities"`
	Recommendations RecommendationsText `yaml:"recommendations" json:"recommendations"`
	Footer          FooterText          `yaml:"footer" json:"footer"`
}

// DocumentText is stored in the PDF information dictionary.
type DocumentText struct {
	Title   string `yaml:"title" json:"title"`
	Subject string `yaml:"subject" json:"subject"`
	Author  string `yaml:"author" json:"author"`
}

// CoverText is the cover page.
type CoverText struct {
	Banner         []string `yaml:"banner" json:"banner"`
	TargetIP       string   `yaml:"target_ip" json:"target_ip"`
	ReportID       string   `yaml:"report_id" json:"report_id"`
	Generated      string   `yaml:"generated" json:"generated"`
	AssessmentDate string   `yaml:"assessment_date" json:"assessment_date"`
	Status         string   `yaml:"status" json:"status"`
	SummaryTitle   string   `yaml:"summary_title" json:"summary_title"`
	SummaryLines   []string `yaml:"summary_lines" json:"summary_lines"`
}

// ExecutiveText is the executive summary section.
type ExecutiveText struct {
	Title          string `yaml:"title" json:"title"`
	Overview       string `yaml:"overview" json:"overview"`
	TargetSystem   string `yaml:"target_system" json:"target_system"`
	AssessmentType string `yaml:"assessment_type" json:"assessment_type"`
	Total          string `yaml:"total" json:"total"`
	ScanDate       string `yaml:"scan_date" json:"scan_date"`
	Breakdown      string `yaml:"breakdown" json:"breakdown"`
}

// TargetText is the target information section.
type TargetText struct {
	Title      string `yaml:"title" json:"title"`
	IP         string `yaml:"ip" json:"ip"`
	OS         string `yaml:"os" json:"os"`
	Hostname   string `yaml:"hostname" json:"hostname"`
	SystemType string `yaml:"system_type" json:"system_type"`
	Memory     string `yaml:"memory" json:"memory"`
}

// NetworkText is the network scan section.
type NetworkText struct {
	Title         string   `yaml:"title" json:"title"`
	ScanType      string   `yaml:"scan_type" json:"scan_type"`
	ScanStatus    string   `yaml:"scan_status" json:"scan_status"`
	ScanTimestamp string   `yaml:"scan_timestamp" json:"scan_timestamp"`
	OpenPorts     string   `yaml:"open_ports" json:"open_ports"`
	Details       string   `yaml:"details" json:"details"`
	Columns       []string `yaml:"columns" json:"columns"`
}

// VulnerabilitiesText is the vulnerability detail section.
type VulnerabilitiesText struct {
	Title   string `yaml:"title" json:"title"`
	Total   string `yaml:"total" json:"total"`
	Details string `yaml:"details" json:"details"`
}

// RecommendationsText is the recommendations section. Defaults are used
// when the input carries no recommendations.
type RecommendationsText struct {
	Title    string   `yaml:"title" json:"title"`
	Defaults []string `yaml:"defaults" json:"defaults"`
}

// FooterText prefixes the footer's left and center texts.
type FooterText struct {
	LeftPrefix   string `yaml:"left_prefix" json:"left_prefix"`
	CenterPrefix string `yaml:"center_prefix" json:"center_prefix"`
}

// DefaultCatalogue returns the embedded catalogue.
func DefaultCatalogue() (*Catalogue, error) {
	data, err := templates.FS.ReadFile(templates.ReportCatalogue)
	if err != nil {
		return nil, fmt.Errorf("report: read embedded catalogue: %w", err)
	}
	cat := &Catalogue{}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("report: parse embedded catalogue: %w", err)
	}
	return cat, nil
}

// MustDefaultCatalogue is DefaultCatalogue for package initialization; the
// embedded file is part of the binary, so failure is a build defect.
func MustDefaultCatalogue() *Catalogue {
	cat, err := DefaultCatalogue()
	if err != nil {
		panic(err)
	}
	return cat
}

// LoadCatalogue reads a YAML override from path on top of the embedded
// catalogue. Keys absent from the file keep their default values.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

// ParseCatalogue is LoadCatalogue for in-memory YAML.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	cat, err := DefaultCatalogue()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("report: parse catalogue: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Validate checks the shape constraints the layout relies on.
func (c *Catalogue) Validate() error {
	if len(c.Network.Columns) != 4 {
		return fmt.Errorf("report: catalogue network.columns: want 4 headers, got %d", len(c.Network.Columns))
	}
	if len(c.Cover.Banner) == 0 {
		return fmt.Errorf("report: catalogue cover.banner is empty")
	}
	return nil
}
