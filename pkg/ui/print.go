// Package ui renders human-readable CLI output on stderr. Machine output
// (PDF bytes, JSON) never goes through this package.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/report"
	"github.com/vareport/vareport/pkg/scantext"
	"github.com/vareport/vareport/pkg/strutil"
)

// serviceWidth bounds the SERVICE column of PrintScan, in runes.
const serviceWidth = 40

var (
	silentMode bool
	uiMu       sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses everything but errors).
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled.
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output.
func SetNoColor(noColor bool) {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

const bannerArt = `
 __   ____ _ _ __ ___ _ __   ___  _ __| |_
 \ \ / / _' | '__/ _ \ '_ \ / _ \| '__| __|
  \ V / (_| | | |  __/ |_) | (_) | |  | |_
   \_/ \__,_|_|  \___| .__/ \___/|_|   \__|
                     |_|`

// PrintBanner writes the banner and version line.
func PrintBanner(w io.Writer) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(w, BannerStyle.Render(bannerArt))
	fmt.Fprintf(w, "  %s %s\n\n",
		MutedStyle.Render("vulnerability assessment reports"),
		VersionStyle.Render("v"+defaults.Version))
}

// PrintSection writes a section heading.
func PrintSection(w io.Writer, title string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(w, SectionStyle.Render(title))
}

// PrintConfigLine writes one aligned label/value pair.
func PrintConfigLine(w io.Writer, label, value string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", ConfigLabelStyle.Render(label), ConfigValueStyle.Render(value))
}

// PrintSuccess writes a success line.
func PrintSuccess(w io.Writer, msg string) {
	if IsSilent() {
		return
	}
	Fprintf(w, "%s %s\n", SuccessStyle.Render(Icon("✔", "[+]")), msg)
}

// PrintWarning writes a warning line.
func PrintWarning(w io.Writer, msg string) {
	if IsSilent() {
		return
	}
	Fprintf(w, "%s %s\n", WarningStyle.Render(Icon("⚠", "[!]")), msg)
}

// PrintError writes an error line. Errors are printed in silent mode too.
func PrintError(w io.Writer, msg string) {
	Fprintf(w, "%s %s\n", ErrorStyle.Render(Icon("✘", "[-]")), msg)
}

// PrintResult summarizes a generation result.
func PrintResult(w io.Writer, res *report.Result, path string) {
	if !res.Success {
		PrintError(w, fmt.Sprintf("%s: %s", res.Message, res.Error))
		return
	}
	PrintSuccess(w, res.Message)
	PrintConfigLine(w, "File", path)
	PrintConfigLine(w, "Pages", strconv.Itoa(res.Pages))
	PrintConfigLine(w, "Report ID", res.Log.ReportID)
	PrintConfigLine(w, "Target", res.Log.TargetIP)
	PrintConfigLine(w, "Findings", strconv.Itoa(res.Log.VulnerabilitiesCount))
	PrintConfigLine(w, "Generation", res.GenerationID)
	if n := len(res.Diagnostics); n > 0 {
		PrintWarning(w, fmt.Sprintf("%d field(s) fell back to defaults (use --log-level debug to list them)", n))
	}
}

// PrintScan renders parsed scan text as a port table.
func PrintScan(w io.Writer, res scantext.Result) {
	if IsSilent() {
		return
	}
	PrintSection(w, "Ports")
	if len(res.Ports) == 0 {
		fmt.Fprintln(w, MutedStyle.Render("  no port lines found"))
	}
	for i, p := range res.Ports {
		if i == 0 {
			fmt.Fprintln(w, TableHeaderStyle.Render(fmt.Sprintf("  %-7s %-9s %-9s %s", "PORT", "PROTOCOL", "STATE", "SERVICE")))
		}
		fmt.Fprintf(w, "  %-7d %-9s %-9s %s\n", p.Port, p.Protocol, p.State, strutil.Truncate(p.Service, serviceWidth))
	}

	PrintSection(w, "Host")
	PrintConfigLine(w, "Status", string(res.Host.Status))
	if res.Host.Latency != "" {
		PrintConfigLine(w, "Latency", res.Host.Latency)
	}
	if res.Host.MACAddress != "" {
		PrintConfigLine(w, "MAC", res.Host.MACAddress)
	}
	PrintConfigLine(w, "Open", strconv.Itoa(res.Summary.Open))
	PrintConfigLine(w, "Closed", strconv.Itoa(res.Summary.Closed))
	PrintConfigLine(w, "Filtered", strconv.Itoa(res.Summary.Filtered))

	for _, warn := range res.Warnings {
		PrintWarning(w, warn)
	}
}

// Divider returns a horizontal rule of width n.
func Divider(n int) string {
	return MutedStyle.Render(strings.Repeat("-", n))
}
