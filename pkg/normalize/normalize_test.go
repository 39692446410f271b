package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
	"github.com/vareport/vareport/pkg/model"
)

var fixedNow = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := jsonutil.DecodeLoose([]byte(s))
	require.NoError(t, err)
	return v
}

func build(t *testing.T, s string) (model.ReportModel, []Diagnostic) {
	t.Helper()
	return Build(decode(t, s), Options{Now: func() time.Time { return fixedNow }})
}

func TestPath(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"a":{"b":{"c":"deep"},"n":null,"s":"x"}}`)

	v, ok := Path("a", "b", "c").Get(root)
	assert.True(t, ok)
	assert.Equal(t, "deep", v)

	_, ok = Path("a", "n").Get(root)
	assert.False(t, ok, "null is absent")

	_, ok = Path("a", "s", "deeper").Get(root)
	assert.False(t, ok, "walking into a scalar is absent")

	_, ok = Path("missing", "x", "y", "z").Get(root)
	assert.False(t, ok)

	assert.Equal(t, "a.b.c", Path("a", "b", "c").Label)
	assert.Equal(t, "a.b.c", Within(Path("a"), Path("b", "c")).Label)
}

func TestText_SentinelsAreSkipped(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"a":"Unknown","b":"N/A","c":"","d":"   ","e":"value"}`)
	got := Text(root, "fb", Path("a"), Path("b"), Path("c"), Path("d"), Path("e"))
	assert.Equal(t, "value", got)
	assert.Equal(t, "fb", Text(root, "fb", Path("a"), Path("b")))
}

func TestText_Scalars(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"i":8,"f":7.5,"z":0,"b":false,"o":{"x":1},"arr":[1]}`)
	assert.Equal(t, "8", Text(root, "", Path("i")))
	assert.Equal(t, "7.5", Text(root, "", Path("f")))
	assert.Equal(t, "0", Text(root, "", Path("z")), "zero is a value")
	assert.Equal(t, "false", Text(root, "", Path("b")))
	assert.Equal(t, "fb", Text(root, "fb", Path("o"), Path("arr")), "non-scalars are skipped")
}

func TestMissingFieldsNeverPanic(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{}`,
		`null`,
		`[]`,
		`"text"`,
		`42`,
		`{"target":null}`,
		`{"target":"10.0.0.1"}`,
		`{"target":{"systemData":null}}`,
		`{"target":{"systemData":{"systemInfo":"x","hardware":[]}}}`,
		`{"networkScan":{"open_ports":"nope","results":5,"raw_output":42}}`,
		`{"networkScan":{"open_ports":[1,"x",null,{"port":"abc"}]}}`,
		`{"vulnerabilityAssessment":{"vulnerabilities":"x","summary":[]}}`,
		`{"vulnerabilityAssessment":{"vulnerabilities":[null,1,"s",[],{}]}}`,
		`{"recommendations":{"a":1}}`,
		`{"recommendations":[null,{},1]}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			require.NotPanics(t, func() {
				m, _ := build(t, in)
				assert.Equal(t, defaults.TargetIP, m.Target.IP)
				assert.Equal(t, defaults.Unknown, m.Target.OS)
				assert.Equal(t, defaults.Unknown, m.Target.Hostname)
				assert.Equal(t, defaults.Unknown, m.Target.SystemType)
				assert.Equal(t, defaults.Unknown, m.Target.TotalMemory)
				assert.Equal(t, defaults.ScanType, m.Network.ScanType)
				assert.Equal(t, defaults.ScanStatus, m.Network.Status)
				assert.NotNil(t, m.Network.Ports)
				assert.Equal(t, m.Summary.Sum(), m.Summary.Total)
				assert.NotEmpty(t, m.Recommendations)
			})
		})
	}
}

func TestTargetIP_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"primary", `{"target":{"ip":"10.0.0.1","systemData":{"ip":"10.0.0.2"}},"targetIP":"10.0.0.3"}`, "10.0.0.1"},
		{"system data", `{"target":{"ip":"Unknown","systemData":{"ip":"10.0.0.2"}}}`, "10.0.0.2"},
		{"flat camel", `{"targetIP":"10.0.0.3","ip_address":"10.0.0.4"}`, "10.0.0.3"},
		{"flat snake", `{"ip_address":"10.0.0.4"}`, "10.0.0.4"},
		{"network scan", `{"networkScan":{"target_ip":"10.0.0.6"}}`, "10.0.0.6"},
		{"assessment", `{"vulnerabilityAssessment":{"target_ip":"10.0.0.7"}}`, "10.0.0.7"},
		{"sentinel only", `{"target":{"ip":"N/A"}}`, defaults.TargetIP},
		{"absent", `{}`, defaults.TargetIP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TargetIP(decode(t, tt.in)))
		})
	}
}

func TestBestEffortTargetIP(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "10.0.0.9", BestEffortTargetIP(decode(t, `{"target":{"ip":"10.0.0.9"}}`)))
	assert.Equal(t, defaults.TargetIP, BestEffortTargetIP(nil))
}

func TestBuild_TargetIPOverride(t *testing.T) {
	t.Parallel()

	m, _ := Build(decode(t, `{}`), Options{TargetIP: "127.0.0.1", Now: func() time.Time { return fixedNow }})
	assert.Equal(t, "127.0.0.1", m.Target.IP)
}

func TestTargetInfo_NestedSystemInfo(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"target":{"systemData":{
		"hostname":"outer-host",
		"systemInfo":{
			"os":{"name":"Windows 11 Pro"},
			"hardware":{"manufacturer":"Dell Inc.","model":"XPS 15","total_physical_memory":17179869184}
		}
	}}}`)
	info := TargetInfo(root)
	assert.Equal(t, "Windows 11 Pro", info.OS)
	assert.Equal(t, "outer-host", info.Hostname, "falls back to systemData when the nested object lacks the path")
	assert.Equal(t, "Dell Inc. XPS 15", info.SystemType)
	assert.Equal(t, "16.00 GB", info.TotalMemory)
}

func TestTargetInfo_AlternateNames(t *testing.T) {
	t.Parallel()

	root := decode(t, `{"target":{"systemData":{
		"operating_system":"Ubuntu 22.04",
		"computer_name":"lab-01",
		"vendor":"Lenovo",
		"memory":{"total":"32 GB"}
	}}}`)
	info := TargetInfo(root)
	assert.Equal(t, "Ubuntu 22.04", info.OS)
	assert.Equal(t, "lab-01", info.Hostname)
	assert.Equal(t, "Lenovo Unknown", info.SystemType)
	assert.Equal(t, "32 GB", info.TotalMemory)
}

func TestMemory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{8, "8 GB"},
		{15.5, "15.5 GB"},
		{1 << 30, "1073741824 GB"},
		{(1 << 30) + 1, "1.00 GB"},
		{8589934592, "8.00 GB"},
		{17179869184, "16.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Memory(tt.in), "%v", tt.in)
	}
}

func TestTargetMemory_Forms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"bytes", `{"target":{"systemData":{"ram":8589934592}}}`, "8.00 GB"},
		{"gigabytes", `{"target":{"systemData":{"totalMemory":16}}}`, "16 GB"},
		{"text with unit", `{"target":{"systemData":{"total_memory":"512 MB"}}}`, "512 MB"},
		{"text without unit", `{"target":{"systemData":{"total_memory":"lots"}}}`, "lots"},
		{"zero is absent", `{"target":{"systemData":{"total_memory":0,"ram":4}}}`, "4 GB"},
		{"object skipped", `{"target":{"systemData":{"memory":{"free":1}}}}`, defaults.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TargetInfo(decode(t, tt.in)).TotalMemory)
		})
	}
}

func TestSystemType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, defaults.Unknown, SystemType(defaults.Unknown, defaults.Unknown))
	assert.Equal(t, "Dell XPS", SystemType("Dell", "XPS"))
	assert.Equal(t, "Unknown XPS", SystemType(defaults.Unknown, "XPS"))
}
