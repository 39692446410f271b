package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/vareport/vareport/pkg/defaults"
)

// ErrNoArtifact is returned by SaveArtifact for failed results.
var ErrNoArtifact = errors.New("report: result has no artifact")

// ErrFileName is wrapped when the file name template is unusable.
var ErrFileName = errors.New("report: invalid file name")

// FileNameData is the data passed to file name templates.
type FileNameData struct {
	// Date is the generation date (YYYY-MM-DD).
	Date string
	// TargetIP is the resolved target address.
	TargetIP string
	// ReportID is the report identifier.
	ReportID string
}

// FileNamer renders artifact file names from a text/template with the
// sprig function map.
type FileNamer struct {
	tmpl *template.Template
}

// NewFileNamer parses text. An empty text selects defaults.FileNameTemplate.
func NewFileNamer(text string) (*FileNamer, error) {
	if text == "" {
		text = defaults.FileNameTemplate
	}
	tmpl, err := template.New("filename").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileName, err)
	}
	return &FileNamer{tmpl: tmpl}, nil
}

// Name renders the template. Characters that cannot appear in a file name
// are replaced with "_" in every field before rendering, so the input data
// cannot make the name unusable. The rendered result must still be a
// single non-empty path element.
func (n *FileNamer) Name(data FileNameData) (string, error) {
	data = FileNameData{
		Date:     safeField(data.Date),
		TargetIP: safeField(data.TargetIP),
		ReportID: safeField(data.ReportID),
	}
	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileName, err)
	}
	name := strings.TrimSpace(buf.String())
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrFileName, name)
	}
	return name, nil
}

func safeField(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, s)
}

// SaveArtifact writes res.PDF to dir/res.FileName through a temporary file
// in dir, so a failed write never leaves a partial artifact. It returns
// the final path.
func SaveArtifact(dir string, res *Result) (string, error) {
	if res == nil || !res.Success || len(res.PDF) == 0 {
		return "", ErrNoArtifact
	}
	if dir == "" {
		dir = defaults.OutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vareport-*.pdf")
	if err != nil {
		return "", fmt.Errorf("report: create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(res.PDF); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("report: write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("report: sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("report: close artifact: %w", err)
	}

	final := filepath.Join(dir, res.FileName)
	if err := os.Rename(tmpName, final); err != nil {
		cleanup()
		return "", fmt.Errorf("report: rename artifact: %w", err)
	}
	return final, nil
}
