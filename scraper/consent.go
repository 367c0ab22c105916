package scraper

import (
	"context"
	"log/slog"
	"regexp"
	"time"
)

// CaptureConsentSelectors target the consent platforms seen on prediction
// pages (Funding Choices, CookieFirst, OneTrust).
var CaptureConsentSelectors = []string{
	"button.fc-cta-consent",
	".fc-cta-consent",
	`button[data-cookiefirst-action="accept"]`,
	"#onetrust-accept-btn-handler",
}

// VoteConsentSelectors target the attribute-based consent buttons on match
// pages.
var VoteConsentSelectors = []string{
	`button[class*="accept"]`,
	`button[class*="consent"]`,
	`[data-testid*="accept"]`,
}

var reConsentText = regexp.MustCompile(`(?i)accept|agree|zgadzam|akceptuj|consent|zustimm|aceptar`)

// DismissConsent clicks the first consent control it can find and waits
// settle afterwards. Selectors are tried in order and only an element
// inside the viewport is clicked; failing that, any visible button whose
// text reads as consent is clicked. Nothing found returns false.
func DismissConsent(ctx context.Context, page Page, sl Sleeper, selectors []string, settle time.Duration) bool {
	slog.Info("looking for consent dialog")

	for _, sel := range selectors {
		els, err := page.Elements(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		el := els[0]
		if !el.InViewport(ctx) {
			continue
		}
		if err := el.Click(ctx); err != nil {
			slog.Debug("consent click failed", "selector", sel, "error", err)
			continue
		}
		slog.Info("consent accepted", "selector", sel)
		_ = sl.Sleep(ctx, settle)
		return true
	}

	buttons, err := page.Elements(ctx, "button")
	if err != nil {
		slog.Debug("consent text scan failed", "error", err)
		return false
	}
	for _, b := range buttons {
		text, err := b.Text(ctx)
		if err != nil || !reConsentText.MatchString(text) || !b.Visible(ctx) {
			continue
		}
		if err := b.Click(ctx); err != nil {
			slog.Debug("consent click failed", "text", text, "error", err)
			continue
		}
		slog.Info("consent accepted", "text", truncate(text, 30))
		_ = sl.Sleep(ctx, settle)
		return true
	}

	slog.Debug("no consent dialog found")
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
