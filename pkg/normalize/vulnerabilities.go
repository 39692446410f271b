package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/finding"
	"github.com/vareport/vareport/pkg/model"
	"github.com/vareport/vareport/pkg/strutil"
)

var (
	assessment     = Path("vulnerabilityAssessment")
	vulnList       = Within(assessment, Path("vulnerabilities"))
	summaryObject  = Within(assessment, Path("summary"))
	titleSources   = []Accessor{Path("title"), Path("name")}
	cvssSources    = []Accessor{Path("cvss_score"), Path("cvss")}
	cveSources     = []Accessor{Path("cve_id"), Path("cve")}
	portSources    = []Accessor{Path("port")}
	descSources    = []Accessor{Path("description")}
	severitySource = []Accessor{Path("severity")}
)

// Vulnerabilities resolves the record list. The second result reports
// whether a list was present at all, which decides how Summary counts.
func Vulnerabilities(root any) ([]model.VulnerabilityRecord, bool) {
	var t trace
	return t.vulnerabilities(root)
}

func (t *trace) vulnerabilities(root any) ([]model.VulnerabilityRecord, bool) {
	v, ok := vulnList.Get(root)
	if !ok {
		return nil, false
	}

	switch list := v.(type) {
	case []any:
		records := make([]model.VulnerabilityRecord, 0, len(list))
		for i, item := range list {
			if rec, ok := t.record(fmt.Sprintf("vulnerabilities[%d]", i), item, ""); ok {
				records = append(records, rec)
			}
		}
		return records, true

	case map[string]any:
		// Grouped form: severity name -> records.
		records := make([]model.VulnerabilityRecord, 0)
		for _, key := range groupKeys(list) {
			group, ok := list[key].([]any)
			if !ok {
				t.shape("vulnerabilities", vulnList.Label+"."+key, "expected array, got %s", kindOf(list[key]))
				continue
			}
			for i, item := range group {
				if rec, ok := t.record(fmt.Sprintf("vulnerabilities.%s[%d]", key, i), item, key); ok {
					records = append(records, rec)
				}
			}
		}
		return records, true
	}

	t.shape("vulnerabilities", vulnList.Label, "expected array or object, got %s", kindOf(v))
	return nil, false
}

// groupKeys orders grouped keys by severity, then the rest alphabetically,
// so that output does not depend on map iteration order.
func groupKeys(groups map[string]any) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		si, sj := finding.Parse(keys[i]).Score(), finding.Parse(keys[j]).Score()
		if si != sj {
			return si > sj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func (t *trace) record(field string, item any, groupSeverity string) (model.VulnerabilityRecord, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		t.shape(field, "", "expected object, got %s, record skipped", kindOf(item))
		return model.VulnerabilityRecord{}, false
	}

	rawSeverity := t.text(obj, field+".severity", groupSeverity, true, severitySource...)
	severity := finding.Parse(rawSeverity)
	if severity == finding.Unknown && rawSeverity != "" && !strings.EqualFold(rawSeverity, string(finding.Unknown)) {
		t.shape(field+".severity", "severity", "unrecognized severity %q mapped to unknown", rawSeverity)
	}

	description := CleanText(t.text(obj, field+".description", "", true, descSources...))
	if description == "" {
		description = defaults.VulnerabilityDescription
	}

	return model.VulnerabilityRecord{
		Title:       CleanText(t.text(obj, field+".title", defaults.VulnerabilityTitle, true, titleSources...)),
		Severity:    severity,
		Port:        t.text(obj, field+".port", defaults.Unknown, true, portSources...),
		CVSSScore:   t.text(obj, field+".cvss_score", defaults.NotAvailable, true, cvssSources...),
		CVEID:       t.text(obj, field+".cve_id", defaults.NotAvailable, true, cveSources...),
		Description: description,
	}, true
}

// CleanText collapses all whitespace, including non-breaking spaces and
// Unicode line and paragraph separators, into single spaces. Bytes that are
// not valid UTF-8 are decoded as Windows-1252 first.
func CleanText(s string) string {
	return strutil.CollapseWhitespace(strutil.ToUTF8(s))
}

// Summary returns severity counts. A record list, even an empty one, is
// always preferred; the pre-aggregated summary object is used only when no
// list is present, and its total is taken as given.
func Summary(root any, records []model.VulnerabilityRecord, haveList bool) model.VulnerabilitySummary {
	var t trace
	return t.summary(root, records, haveList)
}

func (t *trace) summary(root any, records []model.VulnerabilityRecord, haveList bool) model.VulnerabilitySummary {
	if haveList {
		return model.SummarizeRecords(records)
	}

	obj, ok := summaryObject.Get(root)
	if !ok {
		t.fallback("summary", "0")
		return model.VulnerabilitySummary{}
	}
	if _, isObj := obj.(map[string]any); !isObj {
		t.shape("summary", summaryObject.Label, "expected object, got %s", kindOf(obj))
		return model.VulnerabilitySummary{}
	}

	count := func(key string) int {
		v, ok := Path(key).Get(obj)
		if !ok {
			return 0
		}
		n, ok := number(v)
		if !ok || n < 0 {
			t.shape("summary."+key, summaryObject.Label+"."+key, "expected non-negative number, got %s", kindOf(v))
			return 0
		}
		return int(n)
	}

	return model.VulnerabilitySummary{
		Total:    count("total"),
		Critical: count("critical"),
		High:     count("high"),
		Medium:   count("medium"),
		Low:      count("low"),
		Info:     count("info"),
		Unknown:  count("unknown"),
	}
}
