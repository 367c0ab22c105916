package scraper

import (
	"context"
	"log/slog"
	"time"
)

// ContentSelectors appear once prediction rows have rendered.
var ContentSelectors = []string{
	"div.rcnt",
	"tr.tr_0",
	"tr.tr_1",
	"div.schema",
	".contentmiddle",
	"table.schema",
}

// WaitForContent waits up to timeout for each selector in turn and returns
// the first one that appeared.
func WaitForContent(ctx context.Context, page Page, selectors []string, timeout time.Duration) (string, bool) {
	slog.Info("waiting for content")
	for _, sel := range selectors {
		if ctx.Err() != nil {
			return "", false
		}
		if err := page.WaitFor(ctx, sel, timeout); err != nil {
			slog.Debug("content selector not found", "selector", sel, "error", err)
			continue
		}
		slog.Info("content found", "selector", sel)
		return sel, true
	}
	return "", false
}
