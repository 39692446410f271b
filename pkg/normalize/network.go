package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/model"
	"github.com/vareport/vareport/pkg/scantext"
)

var (
	networkScan = Path("networkScan")
	rawOutput   = Within(networkScan, Path("raw_output"))

	openPortSources = []Accessor{
		Within(networkScan, Path("open_ports")),
		Within(networkScan, Path("results", "open_ports")),
		Within(decodedJSON(rawOutput), Path("open_ports")),
	}
)

// decodedJSON returns an accessor that parses the JSON text found by base.
func decodedJSON(base Accessor) Accessor {
	return Accessor{
		Label: base.Label + "<json>",
		Get: func(root any) (any, bool) {
			v, ok := base.Get(root)
			if !ok {
				return nil, false
			}
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			var doc any
			if err := jsonutil.Unmarshal([]byte(s), &doc); err != nil {
				return nil, false
			}
			return doc, doc != nil
		},
	}
}

// NetworkScan resolves the network scan. now supplies the timestamp used
// when the scan carries none.
func NetworkScan(root any, now string) model.NetworkScanResult {
	var t trace
	return t.networkScan(root, now)
}

func (t *trace) networkScan(root any, now string) model.NetworkScanResult {
	res := model.NetworkScanResult{
		ScanType:  t.text(root, "network.scan_type", defaults.ScanType, false, Within(networkScan, Path("scan_type"))),
		Status:    t.text(root, "network.status", defaults.ScanStatus, false, Within(networkScan, Path("status"))),
		Timestamp: t.text(root, "network.scan_timestamp", now, false, Within(networkScan, Path("scan_timestamp"))),
	}

	parsed, haveText := t.scanText(root)

	// Structured data wins per logical field; parsed text fills the gaps.
	res.Ports = t.structuredPorts(root)
	if len(res.Ports) == 0 && haveText {
		res.Ports = parsed.Ports
	}
	sortPorts(res.Ports)
	if res.Ports == nil {
		res.Ports = []model.PortRecord{}
	}

	res.Services = t.structuredServices(root)
	if len(res.Services) == 0 && haveText {
		res.Services = parsed.Services
	}
	if res.Services == nil {
		res.Services = []model.ServiceRecord{}
	}

	host, ok := t.structuredHost(root)
	switch {
	case ok:
		res.Host = host
	case haveText:
		res.Host = parsed.Host
	default:
		res.Host = model.HostInfo{Status: model.HostUnknown}
	}

	summary, ok := t.structuredSummary(root)
	switch {
	case ok:
		res.Summary = summary
	case haveText:
		res.Summary = parsed.Summary
	default:
		for _, p := range res.Ports {
			res.Summary.Add(p.State)
		}
	}

	return res
}

// scanText parses raw_output when it holds freeform text rather than JSON.
func (t *trace) scanText(root any) (scantext.Result, bool) {
	v, ok := rawOutput.Get(root)
	if !ok {
		return scantext.Result{}, false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return scantext.Result{}, false
	}
	if doc, ok := decodedJSON(rawOutput).Get(root); ok {
		if _, isObj := doc.(map[string]any); isObj {
			return scantext.Result{}, false
		}
	}

	res := scantext.Parse(s)
	for _, w := range res.Warnings {
		t.parse("network.raw_output", "%s", w)
	}
	if len(res.Ports) == 0 {
		t.parse("network.raw_output", "no port lines recognized")
	}
	return res, true
}

// structuredPorts takes the first candidate that yields at least one port.
func (t *trace) structuredPorts(root any) []model.PortRecord {
	for _, src := range openPortSources {
		v, ok := src.Get(root)
		if !ok {
			continue
		}
		var ports []model.PortRecord
		switch c := v.(type) {
		case map[string]any:
			ports = t.portsFromObject(src.Label, c)
		case []any:
			ports = t.portsFromArray(src.Label, c)
		default:
			t.shape("network.open_ports", src.Label, "expected object or array, got %s", kindOf(v))
		}
		if len(ports) > 0 {
			return ports
		}
	}
	return nil
}

func (t *trace) portsFromObject(label string, obj map[string]any) []model.PortRecord {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ports := make([]model.PortRecord, 0, len(obj))
	for _, key := range keys {
		port, ok := t.portNumber(label+"."+key, key)
		if !ok {
			continue
		}
		ports = append(ports, t.portRecord(label+"."+key, port, obj[key]))
	}
	return ports
}

func (t *trace) portsFromArray(label string, list []any) []model.PortRecord {
	ports := make([]model.PortRecord, 0, len(list))
	for i, item := range list {
		path := label + "[" + strconv.Itoa(i) + "]"
		v, ok := Path("port").Get(item)
		if !ok {
			t.shape("network.open_ports", path, "record without port skipped")
			continue
		}
		port, ok := t.portNumber(path, v)
		if !ok {
			continue
		}
		ports = append(ports, t.portRecord(path, port, item))
	}
	return ports
}

func (t *trace) portNumber(path string, v any) (int, bool) {
	n, ok := number(v)
	if !ok || n != float64(int(n)) || !model.ValidPort(int(n)) {
		t.shape("network.open_ports", path, "invalid port number, record skipped")
		return 0, false
	}
	return int(n), true
}

// portRecord reads details, which is either an object or a bare service
// name.
func (t *trace) portRecord(path string, port int, details any) model.PortRecord {
	rec := model.PortRecord{
		Port:     port,
		Protocol: model.TCP,
		State:    model.Open,
		Service:  defaults.PortService,
	}
	if name, ok := details.(string); ok {
		if usable(name) {
			rec.Service = name
		}
		return rec
	}

	rec.Service = t.text(details, "network.open_ports.service", defaults.PortService, true, Path("service"), Path("name"))
	if raw := t.text(details, "network.open_ports.state", "", true, Path("state")); raw != "" {
		if st, ok := model.ParsePortState(raw); ok {
			rec.State = st
		} else {
			t.shape("network.open_ports.state", path+".state", "unrecognized state %q, using open", raw)
		}
	}
	if raw := t.text(details, "network.open_ports.protocol", "", true, Path("protocol")); raw != "" {
		if p, ok := model.ParseProtocol(raw); ok {
			rec.Protocol = p
		} else {
			t.shape("network.open_ports.protocol", path+".protocol", "unrecognized protocol %q, using tcp", raw)
		}
	}
	return rec
}

func sortPorts(ports []model.PortRecord) {
	sort.SliceStable(ports, func(i, j int) bool {
		if ports[i].Port != ports[j].Port {
			return ports[i].Port < ports[j].Port
		}
		return ports[i].Protocol < ports[j].Protocol
	})
}

func (t *trace) structuredServices(root any) []model.ServiceRecord {
	src := Within(networkScan, Path("services"))
	v, ok := src.Get(root)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		t.shape("network.services", src.Label, "expected array, got %s", kindOf(v))
		return nil
	}

	seen := make(map[string]bool)
	services := make([]model.ServiceRecord, 0, len(list))
	for _, item := range list {
		name := Text(item, "", Path("name"), Path("service"))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		svc := model.ServiceRecord{Name: name, Protocol: model.TCP, Version: defaults.ServiceVersion}
		if n, ok := Resolve(item, Path("port")); ok {
			if p, ok := number(n); ok && model.ValidPort(int(p)) {
				svc.Port = int(p)
			}
		}
		if p, ok := model.ParseProtocol(Text(item, "", Path("protocol"))); ok {
			svc.Protocol = p
		}
		svc.Version = Text(item, defaults.ServiceVersion, Path("version"))
		services = append(services, svc)
	}
	return services
}

func (t *trace) structuredHost(root any) (model.HostInfo, bool) {
	src := Within(networkScan, Path("host_info"))
	v, ok := src.Get(root)
	if !ok {
		return model.HostInfo{}, false
	}
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return model.HostInfo{}, false
	}
	host := model.HostInfo{
		Status:     model.HostUnknown,
		Latency:    Text(obj, "", Path("latency")),
		MACAddress: Text(obj, "", Path("mac_address"), Path("macAddress")),
	}
	if strings.EqualFold(Text(obj, "", Path("status")), string(model.HostUp)) {
		host.Status = model.HostUp
	}
	return host, true
}

func (t *trace) structuredSummary(root any) (model.ScanSummary, bool) {
	src := Within(networkScan, Path("scan_summary"))
	v, ok := src.Get(root)
	if !ok {
		return model.ScanSummary{}, false
	}
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return model.ScanSummary{}, false
	}
	count := func(key string) int {
		if n, ok := Resolve(obj, Path(key)); ok {
			if f, ok := number(n); ok && f >= 0 {
				return int(f)
			}
		}
		return 0
	}
	return model.ScanSummary{
		TotalScanned: count("total_ports_scanned"),
		Open:         count("open_ports_count"),
		Closed:       count("closed_ports_count"),
		Filtered:     count("filtered_ports_count"),
	}, true
}
