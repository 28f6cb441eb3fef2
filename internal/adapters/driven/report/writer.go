// Package report writes the final scan artifacts: a timestamped JSON
// dump of the scan state and an HTML summary. Artifacts never
// overwrite each other; the timestamp in the filename keeps every run.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// DefaultDir is the output directory created under the working
// directory when none is configured.
const DefaultDir = "gitrecon-results"

// Writer renders scan states into report files.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a report writer targeting dir. An empty dir falls
// back to DefaultDir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write renders the artifacts the format asks for and returns their
// paths.
func (w *Writer) Write(state *domain.ScanState, format domain.ReportFormat) ([]string, error) {
	if format == domain.FormatNone {
		return nil, nil
	}
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	base := fmt.Sprintf("%s_%s_%s",
		state.Target.Identifier,
		state.Target.Platform,
		w.now().UTC().Format("2006-01-02T15-04-05"),
	)

	var paths []string
	if format == domain.FormatJSON || format == domain.FormatAll {
		path := filepath.Join(w.dir, base+".json")
		if err := w.writeJSON(path, state); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if format == domain.FormatHTML || format == domain.FormatAll {
		path := filepath.Join(w.dir, base+".html")
		if err := w.writeHTML(path, state); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *Writer) writeJSON(path string, state *domain.ScanState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing json report: %w", err)
	}
	return nil
}

func (w *Writer) writeHTML(path string, state *domain.ScanState) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating html report: %w", err)
	}
	defer f.Close()

	view := htmlView{
		State:       state,
		GeneratedAt: w.now().Format(time.RFC1123),
	}
	if err := reportTemplate.Execute(f, view); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}
