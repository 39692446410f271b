package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/model"
)

// TargetIPSources lists the candidate locations of the target address in
// resolution order.
var TargetIPSources = []Accessor{
	Path("target", "ip"),
	Path("target", "systemData", "ip"),
	Path("targetIP"),
	Path("ip_address"),
	Path("target_ip"),
	Path("networkScan", "target_ip"),
	Path("vulnerabilityAssessment", "target_ip"),
	Path("networkScan", "ip_address"),
}

// TargetIP resolves the target address, falling back to defaults.TargetIP.
func TargetIP(root any) string {
	return Text(root, defaults.TargetIP, TargetIPSources...)
}

// BestEffortTargetIP is TargetIP for failure paths: it returns
// defaults.FailureTargetIP if extraction itself panics.
func BestEffortTargetIP(root any) (ip string) {
	defer func() {
		if recover() != nil {
			ip = defaults.FailureTargetIP
		}
	}()
	return TargetIP(root)
}

var (
	systemData   = Path("target", "systemData")
	nestedSystem = Within(systemData, Path("systemInfo"))
)

// systemSources expands each relative path into two candidates: the nested
// systemInfo object first, then systemData itself.
func systemSources(paths ...[]string) []Accessor {
	out := make([]Accessor, 0, 2*len(paths))
	for _, p := range paths {
		out = append(out, Within(nestedSystem, Path(p...)), Within(systemData, Path(p...)))
	}
	return out
}

var (
	osSources = systemSources(
		[]string{"os", "name"},
		[]string{"systemInfo", "os", "name"},
		[]string{"os"},
		[]string{"operating_system"},
		[]string{"osName"},
	)
	hostnameSources = systemSources(
		[]string{"hostname"},
		[]string{"systemInfo", "hostname"},
		[]string{"computer_name"},
		[]string{"computerName"},
		[]string{"host"},
		[]string{"name"},
	)
	manufacturerSources = systemSources(
		[]string{"hardware", "manufacturer"},
		[]string{"systemInfo", "hardware", "manufacturer"},
		[]string{"manufacturer"},
		[]string{"vendor"},
	)
	modelSources = systemSources(
		[]string{"hardware", "model"},
		[]string{"systemInfo", "hardware", "model"},
		[]string{"model"},
		[]string{"product"},
	)
	memorySources = systemSources(
		[]string{"hardware", "total_physical_memory"},
		[]string{"systemInfo", "hardware", "total_physical_memory"},
		[]string{"total_physical_memory"},
		[]string{"totalPhysicalMemory"},
		[]string{"total_memory"},
		[]string{"totalMemory"},
		[]string{"memory", "total"},
		[]string{"memory"},
		[]string{"ram"},
	)
)

// TargetInfo resolves the host description.
func TargetInfo(root any) model.TargetInfo {
	var t trace
	return t.targetInfo(root, defaults.TargetIP)
}

func (t *trace) targetInfo(root any, ipFallback string) model.TargetInfo {
	info := model.TargetInfo{
		IP:          t.text(root, "target.ip", ipFallback, false, TargetIPSources...),
		OS:          t.text(root, "target.os", defaults.Unknown, false, osSources...),
		Hostname:    t.text(root, "target.hostname", defaults.Unknown, false, hostnameSources...),
		TotalMemory: t.memory(root),
	}

	manufacturer := t.text(root, "target.manufacturer", defaults.Unknown, true, manufacturerSources...)
	product := t.text(root, "target.model", defaults.Unknown, true, modelSources...)
	info.SystemType = SystemType(manufacturer, product)
	if info.SystemType == defaults.Unknown {
		t.fallback("target.system_type", defaults.Unknown)
	}
	return info
}

// SystemType joins manufacturer and model. It is "Unknown" only when both
// are unknown.
func SystemType(manufacturer, product string) string {
	if manufacturer == defaults.Unknown && product == defaults.Unknown {
		return defaults.Unknown
	}
	return strings.TrimSpace(manufacturer + " " + product)
}

func (t *trace) memory(root any) string {
	for _, src := range memorySources {
		v, ok := src.Get(root)
		if !ok || !usable(v) {
			continue
		}
		if m, ok := v.(string); ok {
			return m
		}
		f, ok := number(v)
		if !ok {
			t.shape("target.total_memory", src.Label, "expected number or text, got %s", kindOf(v))
			continue
		}
		if f == 0 {
			continue
		}
		return Memory(f)
	}
	t.fallback("target.total_memory", defaults.Unknown)
	return defaults.Unknown
}

const gib = 1 << 30

// Memory renders a raw memory figure. Values above 2^30 are bytes and are
// converted to gigabytes with two decimals; smaller values are taken to be
// gigabytes already.
func Memory(v float64) string {
	if v > gib {
		return fmt.Sprintf("%.2f GB", v/gib)
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " GB"
}
