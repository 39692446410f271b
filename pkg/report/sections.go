package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/finding"
	"github.com/vareport/vareport/pkg/layout"
	"github.com/vareport/vareport/pkg/model"
)

// calloutGap separates the cover key-values from the summary callout.
const calloutGap = 20

// overviewGap separates the executive overview from the severity rows.
const overviewGap = 10

// pipeline threads a layout.State through a sequence of blocks and stops
// at the first error.
type pipeline struct {
	s   layout.State
	m   layout.Measurer
	err error
}

func (p *pipeline) do(block func(layout.State) (layout.State, error)) {
	if p.err != nil {
		return
	}
	p.s, p.err = block(p.s)
}

func (p *pipeline) section(title string) {
	p.do(func(s layout.State) (layout.State, error) { return layout.SectionHeader(s, p.m, title) })
}

func (p *pipeline) sub(text string) {
	p.do(func(s layout.State) (layout.State, error) { return layout.SubHeader(s, p.m, text) })
}

func (p *pipeline) kv(key, value string) {
	p.do(func(s layout.State) (layout.State, error) { return layout.KeyValue(s, p.m, key, value) })
}

func (p *pipeline) space(h float64) {
	p.do(func(s layout.State) (layout.State, error) { return layout.Spacer(s, h) })
}

// sections lays out the six report sections in order.
func sections(p *pipeline, m model.ReportModel, cat *Catalogue, now time.Time) {
	cover(p, m, cat, now)
	executive(p, m, cat)
	targetInfo(p, m, cat)
	networkScan(p, m, cat)
	vulnerabilities(p, m, cat)
	recommendations(p, m, cat)
}

func cover(p *pipeline, m model.ReportModel, cat *Catalogue, now time.Time) {
	c := cat.Cover
	p.do(func(s layout.State) (layout.State, error) { return layout.Banner(s, p.m, c.Banner...) })
	p.kv(c.TargetIP, m.Target.IP)
	p.kv(c.ReportID, m.Metadata.ReportID)
	p.kv(c.Generated, displayTime(m.Metadata.GeneratedAt))
	p.kv(c.AssessmentDate, now.UTC().Format(defaults.DateLayout))
	p.kv(c.Status, defaults.ReportStatus)
	p.space(calloutGap)
	p.do(func(s layout.State) (layout.State, error) {
		return layout.Callout(s, p.m, c.SummaryTitle, c.SummaryLines...)
	})
	p.do(layout.NewPage)
}

func executive(p *pipeline, m model.ReportModel, cat *Catalogue) {
	e := cat.Executive
	p.section(e.Title)
	p.sub(e.Overview)
	p.kv(e.TargetSystem, m.Target.IP)
	p.kv(e.AssessmentType, defaults.AssessmentType)
	p.kv(e.Total, strconv.Itoa(m.Summary.Total))
	p.kv(e.ScanDate, displayTime(m.Network.Timestamp))
	p.space(overviewGap)
	p.sub(e.Breakdown)
	for _, sev := range finding.Ordered() {
		count := m.Summary.Count(sev)
		p.do(func(s layout.State) (layout.State, error) {
			return layout.SeverityIndicator(s, p.m, sev, count)
		})
	}
}

func targetInfo(p *pipeline, m model.ReportModel, cat *Catalogue) {
	t := cat.Target
	p.section(t.Title)
	p.kv(t.IP, m.Target.IP)
	p.kv(t.OS, m.Target.OS)
	p.kv(t.Hostname, m.Target.Hostname)
	p.kv(t.SystemType, m.Target.SystemType)
	p.kv(t.Memory, m.Target.TotalMemory)
}

func networkScan(p *pipeline, m model.ReportModel, cat *Catalogue) {
	n := cat.Network
	p.section(n.Title)
	p.kv(n.ScanType, m.Network.ScanType)
	p.kv(n.ScanStatus, m.Network.Status)
	p.kv(n.ScanTimestamp, displayTime(m.Network.Timestamp))
	p.kv(n.OpenPorts, strconv.Itoa(openPorts(m.Network.Ports)))

	if len(m.Network.Ports) == 0 {
		return
	}
	p.sub(n.Details)
	rows := portRows(m.Network.Ports)
	for _, chunk := range chunkRows(rows, layout.TableCapacity()) {
		p.do(func(s layout.State) (layout.State, error) {
			return layout.Table(s, p.m, n.Columns, chunk)
		})
	}
}

func vulnerabilities(p *pipeline, m model.ReportModel, cat *Catalogue) {
	v := cat.Vulnerabilities
	p.section(v.Title)
	p.kv(v.Total, strconv.Itoa(m.Summary.Total))

	if len(m.Vulnerabilities) == 0 {
		return
	}
	p.sub(v.Details)
	for i, rec := range m.Vulnerabilities {
		p.do(func(s layout.State) (layout.State, error) {
			return layout.VulnerabilityCard(s, p.m, i+1, rec)
		})
	}
}

func recommendations(p *pipeline, m model.ReportModel, cat *Catalogue) {
	p.section(cat.Recommendations.Title)
	for i, text := range m.Recommendations {
		p.do(func(s layout.State) (layout.State, error) {
			return layout.ListItem(s, p.m, i+1, text)
		})
	}
}

// openPorts counts ports in the open state.
func openPorts(ports []model.PortRecord) int {
	n := 0
	for _, port := range ports {
		if port.State == model.Open {
			n++
		}
	}
	return n
}

func portRows(ports []model.PortRecord) [][]string {
	rows := make([][]string, 0, len(ports))
	for _, port := range ports {
		rows = append(rows, []string{
			strconv.Itoa(port.Port),
			port.Service,
			string(port.State),
			strings.ToUpper(string(port.Protocol)),
		})
	}
	return rows
}

// chunkRows splits rows into slices of at most size rows.
func chunkRows(rows [][]string, size int) [][][]string {
	if size <= 0 {
		size = 1
	}
	chunks := make([][][]string, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		chunks = append(chunks, rows[start:min(start+size, len(rows))])
	}
	return chunks
}

// displayTime renders ISO-8601 timestamps in UTC. Anything else is shown
// as given.
func displayTime(raw string) string {
	for _, layoutStr := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layoutStr, raw); err == nil {
			return t.UTC().Format(defaults.DateTimeLayout)
		}
	}
	return raw
}
