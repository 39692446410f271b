package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/jsonutil"
)

type testEnv struct {
	env
	out, err *bytes.Buffer
}

func newTestEnv(stdin string, vars map[string]string) *testEnv {
	out, errBuf := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		env: env{
			stdin:  strings.NewReader(stdin),
			stdout: out,
			stderr: errBuf,
			lookup: func(k string) (string, bool) {
				v, ok := vars[k]
				return v, ok
			},
		},
		out: out,
		err: errBuf,
	}
}

func (e *testEnv) run(args ...string) int {
	return run(context.Background(), &e.env, args)
}

const sampleInput = `{
	"reportId": "VULN_CLI",
	"target": {"ip": "10.0.0.9"},
	"networkScan": {"raw_output": "22/tcp open ssh OpenSSH 8.2\n80/tcp open http nginx"},
	"vulnerabilityAssessment": {"vulnerabilities": [{"title": "Weak SSH ciphers", "severity": "medium", "port": 22}]}
}`

func TestRun_NoArgs(t *testing.T) {
	e := newTestEnv("", nil)
	assert.Equal(t, defaults.ExitUserError, e.run())
	assert.Contains(t, e.err.String(), "COMMANDS")
}

func TestRun_UnknownCommand(t *testing.T) {
	e := newTestEnv("", nil)
	assert.Equal(t, defaults.ExitUserError, e.run("frobnicate"))
	assert.Contains(t, e.err.String(), `unknown command "frobnicate"`)
}

func TestRun_Version(t *testing.T) {
	e := newTestEnv("", nil)
	assert.Equal(t, defaults.ExitSuccess, e.run("version"))
	assert.Equal(t, "vareport "+defaults.Version+"\n", e.out.String())
}

func TestLookupCommand_Aliases(t *testing.T) {
	for alias, want := range map[string]string{"gen": "generate", "api": "serve", "--version": "version"} {
		c, ok := lookupCommand(alias)
		require.True(t, ok, alias)
		assert.Equal(t, want, c.name)
	}
}

func TestGenerate_WritesReport(t *testing.T) {
	dir := t.TempDir()
	e := newTestEnv(sampleInput, nil)

	code := e.run("generate", "--silent", "--no-color", "-o", dir)
	require.Equal(t, defaults.ExitSuccess, code, e.err.String())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.True(t, strings.HasPrefix(name, "Vulnerability_Assessment_Report_"))
	assert.True(t, strings.HasSuffix(name, "_10_0_0_9.pdf"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerate_JSONResult(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(input, []byte(sampleInput), 0o644))

	e := newTestEnv("", map[string]string{"VAREPORT_OUTPUT_DIR": filepath.Join(dir, "out")})
	code := e.run("generate", "--json", "-i", input)
	require.Equal(t, defaults.ExitSuccess, code, e.err.String())

	var res map[string]any
	require.NoError(t, jsonutil.Unmarshal(e.out.Bytes(), &res))
	assert.Equal(t, true, res["success"])
	log, ok := res["log"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VULN_CLI", log["reportId"])
	assert.Equal(t, float64(1), log["vulnerabilitiesCount"])

	_, err := os.Stat(filepath.Join(dir, "out", res["fileName"].(string)))
	assert.NoError(t, err)
}

func TestGenerate_Stdout(t *testing.T) {
	e := newTestEnv(sampleInput, nil)
	code := e.run("generate", "--stdout", "--silent")
	require.Equal(t, defaults.ExitSuccess, code, e.err.String())
	assert.True(t, bytes.HasPrefix(e.out.Bytes(), []byte("%PDF")))
}

func TestGenerate_EventLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "events.jsonl")
	e := newTestEnv(sampleInput, nil)

	code := e.run("generate", "--silent", "-o", dir, "--event-log", logPath)
	require.Equal(t, defaults.ExitSuccess, code, e.err.String())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"generation"`)
	assert.Contains(t, string(data), "VULN_CLI")
}

func TestGenerate_BadFlag(t *testing.T) {
	e := newTestEnv("", nil)
	assert.Equal(t, defaults.ExitUserError, e.run("generate", "--no-such-flag"))
}

func TestGenerate_Help(t *testing.T) {
	e := newTestEnv("", nil)
	assert.Equal(t, defaults.ExitSuccess, e.run("generate", "-h"))
	assert.Contains(t, e.err.String(), "Usage: vareport generate")
}

func TestGenerate_BadLogLevel(t *testing.T) {
	e := newTestEnv(sampleInput, nil)
	assert.Equal(t, defaults.ExitUserError, e.run("generate", "--log-level", "loud", "-o", t.TempDir()))
}

func TestWithScanText(t *testing.T) {
	t.Parallel()

	doc := withScanText([]byte(`{"reportId": "R1"}`), "22/tcp open ssh").(map[string]any)
	assert.Equal(t, "R1", doc["reportId"])
	assert.Equal(t, "22/tcp open ssh", doc["networkScan"].(map[string]any)["raw_output"])

	kept := withScanText([]byte(`{"networkScan": {"raw_output": "80/tcp open http"}}`), "22/tcp open ssh").(map[string]any)
	assert.Equal(t, "80/tcp open http", kept["networkScan"].(map[string]any)["raw_output"])

	fresh := withScanText([]byte(`not json`), "22/tcp open ssh").(map[string]any)
	assert.Equal(t, "22/tcp open ssh", fresh["networkScan"].(map[string]any)["raw_output"])
}

func TestParse_JSON(t *testing.T) {
	e := newTestEnv("22/tcp open ssh\n443/tcp filtered https\n", nil)
	require.Equal(t, defaults.ExitSuccess, e.run("parse", "--json"), e.err.String())

	var res map[string]any
	require.NoError(t, jsonutil.Unmarshal(e.out.Bytes(), &res))
	assert.Len(t, res["ports"], 2)
}

func TestParse_Empty(t *testing.T) {
	e := newTestEnv("  \n", nil)
	assert.Equal(t, defaults.ExitUserError, e.run("parse"))
}

func TestFetch_RequiresIP(t *testing.T) {
	e := newTestEnv("", nil)
	assert.Equal(t, defaults.ExitUserError, e.run("fetch", "--upstream", "http://127.0.0.1:1"))
}

func TestFetch_RequiresUpstream(t *testing.T) {
	e := newTestEnv("", nil)
	assert.Equal(t, defaults.ExitUserError, e.run("fetch", "--ip", "10.0.0.1"))
	assert.Contains(t, e.err.String(), "VAREPORT_UPSTREAM_URL")
}

func TestGenerate_Batch(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	for i, ip := range []string{"10.1.0.1", "10.1.0.2", "10.1.0.3"} {
		doc := strings.Replace(sampleInput, "10.0.0.9", ip, 1)
		require.NoError(t, os.WriteFile(filepath.Join(in, fmt.Sprintf("in%d.json", i)), []byte(doc), 0o644))
	}

	e := newTestEnv("", nil)
	code := e.run("generate", "--silent", "--batch", in, "--workers", "2", "-o", out)
	require.Equal(t, defaults.ExitSuccess, code, e.err.String())

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestGenerate_BatchDuplicateFileName(t *testing.T) {
	in := t.TempDir()
	for _, name := range []string{"a.json", "b.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(sampleInput), 0o644))
	}

	e := newTestEnv("", nil)
	code := e.run("generate", "--silent", "--batch", in, "-o", t.TempDir())
	assert.Equal(t, defaults.ExitGenerationFailed, code)
	assert.Contains(t, e.err.String(), "b.json: renders to")
}

func TestGenerate_BatchEmptyDir(t *testing.T) {
	e := newTestEnv("", nil)
	assert.Equal(t, defaults.ExitUserError, e.run("generate", "--batch", t.TempDir()))
}
