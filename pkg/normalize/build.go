package normalize

import (
	"strconv"
	"time"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/model"
)

// DefaultRecommendations are rendered when the input carries none.
var DefaultRecommendations = []string{
	"Apply security patches for identified vulnerabilities",
	"Close unnecessary open ports",
	"Implement network segmentation",
	"Regular vulnerability assessments",
	"Monitor system logs for suspicious activities",
}

// Options configures Build.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// TargetIP overrides defaults.TargetIP as the address fallback.
	TargetIP string

	// Recommendations overrides DefaultRecommendations.
	Recommendations []string
}

// Build resolves the complete report model from root, which is normally
// the result of decoding a JSON document into an any. Inputs that are not
// objects are treated as empty objects.
func Build(root any, opts Options) (model.ReportModel, []Diagnostic) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now().UTC()
	nowISO := now.Format(time.RFC3339Nano)

	var t trace
	if _, ok := root.(map[string]any); !ok {
		t.shape("input", "", "expected object, got %s", kindOf(root))
		root = map[string]any{}
	}

	ipFallback := opts.TargetIP
	if ipFallback == "" {
		ipFallback = defaults.TargetIP
	}
	target := t.targetInfo(root, ipFallback)

	records, haveList := t.vulnerabilities(root)
	if records == nil {
		records = []model.VulnerabilityRecord{}
	}

	m := model.ReportModel{
		Metadata: model.ReportMetadata{
			ReportID:    t.text(root, "report_id", defaults.ReportIDPrefix+strconv.FormatInt(now.UnixMilli(), 10), false, Path("reportId"), Path("report_id")),
			GeneratedAt: t.text(root, "generated_at", nowISO, false, Path("reportGenerated"), Path("generatedAt")),
		},
		Target:          target,
		Network:         t.networkScan(root, nowISO),
		Vulnerabilities: records,
		Summary:         t.summary(root, records, haveList),
		Recommendations: t.recommendations(root, opts.Recommendations),
	}
	return m, t.diags
}

func (t *trace) recommendations(root any, fallback []string) []string {
	if len(fallback) == 0 {
		fallback = DefaultRecommendations
	}

	src := Path("recommendations")
	v, ok := src.Get(root)
	if !ok {
		return append([]string(nil), fallback...)
	}
	list, ok := v.([]any)
	if !ok {
		t.shape("recommendations", src.Label, "expected array, got %s", kindOf(v))
		return append([]string(nil), fallback...)
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		var s string
		switch r := item.(type) {
		case string:
			s = r
		case map[string]any:
			s = Text(r, "", Path("title"), Path("text"), Path("recommendation"))
		}
		if s = CleanText(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		t.fallback("recommendations", "defaults")
		return append([]string(nil), fallback...)
	}
	return out
}
