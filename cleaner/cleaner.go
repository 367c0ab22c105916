// Package cleaner turns a captured prediction page into the lighter formats
// served to API and MCP clients.
package cleaner

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/oddscout/models"
)

// Output formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// DefaultScope is the prediction listing container on Forebet pages.
const DefaultScope = ".contentmiddle"

// Cleaner renders captures. It is safe for concurrent use.
type Cleaner struct {
	md    *converter.Converter
	scope cascadia.Sel
}

// New returns a Cleaner that narrows markdown and text output to scope. An
// empty scope keeps the whole body.
func New(scope string) (*Cleaner, error) {
	c := &Cleaner{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
	if scope != "" {
		sel, err := cascadia.Parse(scope)
		if err != nil {
			return nil, fmt.Errorf("cleaner: parse scope %q: %w", scope, err)
		}
		c.scope = sel
	}
	return c, nil
}

// Render converts rawHTML to format. The html format is the capture exactly
// as written to disk; markdown and text drop noise and keep only the scope.
func (c *Cleaner) Render(rawHTML, sourceURL, format string) (string, models.TokenInfo, error) {
	var (
		out string
		err error
	)
	switch format {
	case FormatHTML, "":
		out = rawHTML
	case FormatMarkdown:
		out, err = c.md.ConvertString(c.narrow(RemoveNoise(rawHTML, NoiseSelectors)), converter.WithDomain(sourceURL))
		if err != nil {
			return "", models.TokenInfo{}, models.NewScrapeError(models.ErrCodeExtraction, "markdown conversion failed", err)
		}
	case FormatText:
		out = PlainText(c.narrow(RemoveNoise(rawHTML, NoiseSelectors)))
	default:
		return "", models.TokenInfo{}, models.NewScrapeError(models.ErrCodeInvalidInput, "unknown output format "+format, nil)
	}
	return out, tokenInfo(rawHTML, out), nil
}

// narrow returns the outer HTML of the scope matches, or rawHTML when the
// scope is unset or matches nothing.
func (c *Cleaner) narrow(rawHTML string) string {
	if c.scope == nil {
		return rawHTML
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	matches := cascadia.QueryAll(doc, c.scope)
	if len(matches) == 0 {
		return rawHTML
	}
	var buf bytes.Buffer
	for _, n := range matches {
		if err := html.Render(&buf, n); err != nil {
			return rawHTML
		}
	}
	return buf.String()
}

func tokenInfo(original, cleaned string) models.TokenInfo {
	o, c := EstimateTokens(original), EstimateTokens(cleaned)
	savings := 0.0
	if o > 0 {
		savings = math.Round(float64(o-c)/float64(o)*10000) / 100
	}
	return models.TokenInfo{OriginalEstimate: o, CleanedEstimate: c, SavingsPercent: savings}
}

// EstimateTokens approximates a token count as runes / 3.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return max(n/3, 1)
}
