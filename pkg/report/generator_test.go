package report

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/layout"
	"github.com/vareport/vareport/pkg/normalize"
	"github.com/vareport/vareport/pkg/output/events"
	"github.com/vareport/vareport/pkg/render"
)

var testNow = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

const sampleInput = `{
	"reportId": "VULN_TEST",
	"target": {"ip": "10.0.0.5", "systemData": {"hostname": "web-01", "os": "Ubuntu 22.04"}},
	"networkScan": {"raw_output": "Host is up.\n22/tcp open ssh\n80/tcp closed http"},
	"vulnerabilityAssessment": {"vulnerabilities": [
		{"title": "OpenSSH user enumeration", "severity": "HIGH", "port": 22, "cvss_score": 5.3, "cve_id": "CVE-2018-15473"}
	]}
}`

type sink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *sink) Dispatch(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *sink) generations() []*events.GenerationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*events.GenerationEvent
	for _, e := range s.events {
		if ge, ok := e.(*events.GenerationEvent); ok {
			out = append(out, ge)
		}
	}
	return out
}

func (s *sink) diagnostics() []*events.DiagnosticEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*events.DiagnosticEvent
	for _, e := range s.events {
		if de, ok := e.(*events.DiagnosticEvent); ok {
			out = append(out, de)
		}
	}
	return out
}

type nanMeasurer struct{}

func (nanMeasurer) StringWidth(layout.Font, string) float64 { return math.NaN() }

func (nanMeasurer) SplitText(_ layout.Font, s string, _ float64) []string { return []string{s} }

func newGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "gen-1" }
	}
	g, err := New(opts)
	require.NoError(t, err)
	return g
}

func recorderDocs() func(render.PDFOptions) render.Document {
	return func(render.PDFOptions) render.Document { return &render.Recorder{} }
}

func TestGenerate_EndToEnd(t *testing.T) {
	t.Parallel()

	rec := &sink{}
	g := newGenerator(t, Options{Events: rec, Validate: true})

	res := g.Generate(context.Background(), []byte(sampleInput))
	require.True(t, res.Success, res.Error)

	assert.Equal(t, MessageSuccess, res.Message)
	assert.Equal(t, "Vulnerability_Assessment_Report_2025-03-01_10_0_0_5.pdf", res.FileName)
	assert.Contains(t, res.FileName, "10_0_0_5")
	assert.Equal(t, "gen-1", res.GenerationID)
	assert.True(t, bytes.HasPrefix(res.PDF, []byte("%PDF-")))
	assert.GreaterOrEqual(t, res.Pages, 2)
	assert.NotEmpty(t, res.Digest)

	assert.Equal(t, LogRecord{
		ReportID:             "VULN_TEST",
		TargetIP:             "10.0.0.5",
		GeneratedAt:          "2025-03-01T10:30:00Z",
		VulnerabilitiesCount: 1,
		Status:               events.StatusSuccess,
		Timestamp:            testNow.UnixMilli(),
	}, res.Log)

	gens := rec.generations()
	require.Len(t, gens, 1)
	assert.False(t, gens[0].Failed())
	assert.Equal(t, res.FileName, gens[0].FileName)
	assert.Equal(t, res.Pages, gens[0].Pages)
	assert.Equal(t, res.Digest, gens[0].Digest)
	assert.Equal(t, "gen-1", gens[0].GenerationID())
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, Options{})
	a := g.Generate(context.Background(), []byte(sampleInput))
	b := g.Generate(context.Background(), []byte(sampleInput))
	require.True(t, a.Success, a.Error)
	require.True(t, b.Success, b.Error)

	assert.Equal(t, a.Digest, b.Digest)
	assert.Equal(t, a.Pages, b.Pages)
	assert.True(t, bytes.Equal(a.PDF, b.PDF))
}

func TestGenerate_InvalidJSON(t *testing.T) {
	t.Parallel()

	rec := &sink{}
	g := newGenerator(t, Options{Events: rec, NewDocument: recorderDocs()})

	res := g.Generate(context.Background(), []byte("not json {"))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Vulnerability_Assessment_Report_2025-03-01_192_168_56_1.pdf", res.FileName)
	assert.Equal(t, 0, res.Log.VulnerabilitiesCount)

	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, normalize.KindDataShape, res.Diagnostics[0].Kind)
	assert.Equal(t, "input", res.Diagnostics[0].Field)
	assert.Len(t, rec.diagnostics(), len(res.Diagnostics))
}

func TestGenerate_DiagnosticsShareGenerationID(t *testing.T) {
	t.Parallel()

	rec := &sink{}
	g := newGenerator(t, Options{Events: rec, NewDocument: recorderDocs()})

	res := g.Generate(context.Background(), []byte(`{"target":{"ip":"10.0.0.5"}}`))
	require.True(t, res.Success)

	diags := rec.diagnostics()
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.Equal(t, res.GenerationID, d.GenerationID())
		assert.Equal(t, string(normalize.KindDataShape), d.Kind)
	}
}

func TestGenerate_BackendFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	rec := &sink{}
	g := newGenerator(t, Options{
		Events:      rec,
		NewDocument: func(render.PDFOptions) render.Document { return &render.Recorder{Fail: boom} },
	})

	res := g.Generate(context.Background(), []byte(sampleInput))
	assert.False(t, res.Success)
	assert.Equal(t, MessageFailure, res.Message)
	assert.Contains(t, res.Error, "disk full")
	assert.ErrorIs(t, res.Err, boom)
	assert.Nil(t, res.PDF)
	assert.Empty(t, res.FileName)

	assert.Equal(t, events.StatusFailed, res.Log.Status)
	assert.Equal(t, "10.0.0.5", res.Log.TargetIP)
	assert.Equal(t, "VULN_TEST", res.Log.ReportID)
	assert.Equal(t, 1, res.Log.VulnerabilitiesCount)

	gens := rec.generations()
	require.Len(t, gens, 1)
	assert.True(t, gens[0].Failed())
	assert.Equal(t, res.Error, gens[0].Error)
}

func TestGenerate_LayoutFailure(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, Options{Measurer: nanMeasurer{}, NewDocument: recorderDocs()})

	res := g.Generate(context.Background(), []byte(sampleInput))
	assert.False(t, res.Success)
	assert.Equal(t, events.StatusFailed, res.Log.Status)
	assert.Equal(t, "10.0.0.5", res.Log.TargetIP)
	assert.NotEmpty(t, res.Error)
}

func TestGenerate_RecoversPanic(t *testing.T) {
	t.Parallel()

	rec := &sink{}
	g := newGenerator(t, Options{
		Events:      rec,
		NewDocument: func(render.PDFOptions) render.Document { panic("backend exploded") },
	})

	res := g.Generate(context.Background(), []byte(sampleInput))
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrPanic)
	assert.Contains(t, res.Error, "backend exploded")
	assert.Equal(t, "10.0.0.5", res.Log.TargetIP)

	gens := rec.generations()
	require.Len(t, gens, 1)
	assert.True(t, gens[0].Failed())
}

func TestGenerate_CIDRTarget(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, Options{NewDocument: recorderDocs()})

	res := g.Generate(context.Background(), []byte(`{"target":{"ip":"10.0.0.0/24"}}`))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Vulnerability_Assessment_Report_2025-03-01_10_0_0_0_24.pdf", res.FileName)
	assert.Equal(t, "10.0.0.0/24", res.Log.TargetIP)
}

func TestGenerate_Latin1ScanText(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, Options{})

	res := g.GenerateFrom(context.Background(), map[string]any{
		"target":      map[string]any{"ip": "10.0.0.5"},
		"networkScan": map[string]any{"raw_output": "80/tcp open " + strings.Repeat("A", 60) + "\xe9B\n"},
	})
	require.True(t, res.Success, res.Error)
	assert.True(t, bytes.HasPrefix(res.PDF, []byte("%PDF-")))
}

func TestGenerate_CanceledBeforeRender(t *testing.T) {
	t.Parallel()

	rec := &sink{}
	g := newGenerator(t, Options{Events: rec, NewDocument: recorderDocs()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.Generate(ctx, []byte(sampleInput))
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Nil(t, res.PDF)

	gens := rec.generations()
	require.Len(t, gens, 1)
	assert.True(t, gens[0].Failed())
}

func TestGenerate_FileNameTemplate(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, Options{
		NewDocument:      recorderDocs(),
		FileNameTemplate: `{{ .ReportID | lower }}.pdf`,
	})
	res := g.Generate(context.Background(), []byte(sampleInput))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "vuln_test.pdf", res.FileName)

	g = newGenerator(t, Options{NewDocument: recorderDocs(), FileNameTemplate: `{{ .TargetIP }}/x.pdf`})
	res = g.Generate(context.Background(), []byte(sampleInput))
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrFileName)
}

func TestNew_RejectsBadOptions(t *testing.T) {
	t.Parallel()

	_, err := New(Options{FileNameTemplate: "{{ .Date"})
	assert.ErrorIs(t, err, ErrFileName)

	cat := MustDefaultCatalogue()
	cat.Network.Columns = cat.Network.Columns[:2]
	_, err = New(Options{Catalogue: cat})
	assert.Error(t, err)
}

func TestLayout_Footers(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, Options{})
	m, _ := normalize.Build(map[string]any{"target": map[string]any{"ip": "10.0.0.5"}}, normalize.Options{
		Now: func() time.Time { return testNow },
	})

	s, err := g.Layout(m, testNow)
	require.NoError(t, err)
	require.True(t, s.Finalized())

	for page := 1; page <= s.Pages(); page++ {
		texts := strings.Join(s.FooterTexts(page), "|")
		assert.Contains(t, texts, "Vulnerability Assessment Report - 10.0.0.5")
		assert.Contains(t, texts, "Generated: 2025-03-01")
	}
}

func TestLayout_CatalogueOverride(t *testing.T) {
	t.Parallel()

	cat, err := ParseCatalogue([]byte("executive:\n  title: RESUMEN EJECUTIVO\n"))
	require.NoError(t, err)
	assert.Equal(t, "Target System", cat.Executive.TargetSystem, "other keys keep defaults")

	g := newGenerator(t, Options{Catalogue: cat})
	m, _ := normalize.Build(map[string]any{}, normalize.Options{Now: func() time.Time { return testNow }})
	s, err := g.Layout(m, testNow)
	require.NoError(t, err)

	var texts []string
	for _, c := range s.Commands() {
		if c.Op == layout.OpText {
			texts = append(texts, c.Text)
		}
	}
	assert.Contains(t, texts, "RESUMEN EJECUTIVO")
	assert.NotContains(t, texts, "EXECUTIVE SUMMARY")
}

func TestGenerator_Catalogue(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, Options{})
	require.NotNil(t, g.Catalogue())
	assert.NoError(t, g.Catalogue().Validate())
}
