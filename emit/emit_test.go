package emit

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/use-agent/oddscout/models"
)

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.html")
	html := "<html><body>Pokaż więcej</body></html>"

	n, err := WriteHTML(path, html)
	if err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	if n != len(html) {
		t.Errorf("n = %d, want %d", n, len(html))
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != html {
		t.Errorf("file = %q", got)
	}
}

func TestWriteHTML_Unwritable(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteHTML(dir, "x") // a directory, not a file
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeOutput {
		t.Errorf("err = %v, want OUTPUT_FAILED", err)
	}
}

func TestWriteJSONLine(t *testing.T) {
	var buf bytes.Buffer
	res := models.NewFanVoteResult("https://www.sofascore.com/a-b/xyz?tab=1&lang=en")
	res.Fail("Could not find fan votes on page")

	if err := WriteJSONLine(&buf, res); err != nil {
		t.Fatalf("WriteJSONLine: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Errorf("want exactly one line, got %q", out)
	}
	if !strings.Contains(out, "&lang=en") {
		t.Errorf("URL was escaped: %s", out)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"success", "home_win_pct", "draw_pct", "away_win_pct", "total_votes", "url", "error"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if _, ok := decoded["pre_match"]; ok {
		t.Error("pre_match should be omitted when false")
	}
}
