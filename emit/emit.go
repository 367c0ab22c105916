// Package emit writes the single deliverable of an invocation: a captured
// HTML file or one JSON line.
package emit

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/use-agent/oddscout/models"
)

// WriteHTML writes html to path as UTF-8, creating parent directories, and
// returns the byte count written.
func WriteHTML(path, html string) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, models.NewScrapeError(models.ErrCodeOutput, "failed to create output directory", err)
		}
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return 0, models.NewScrapeError(models.ErrCodeOutput, "failed to write "+path, err)
	}
	return len(html), nil
}

// WriteDebug saves the markup of a page that could not be captured.
func WriteDebug(path, html string) error {
	_, err := WriteHTML(path, html)
	return err
}

// WriteJSONLine encodes v as one JSON document followed by a newline.
// HTML characters are left unescaped so URLs survive verbatim.
func WriteJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return models.NewScrapeError(models.ErrCodeOutput, "failed to write JSON result", err)
	}
	return nil
}
