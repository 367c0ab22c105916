package scraper

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// LoadMoreSelectors match "show more" controls by id or class.
var LoadMoreSelectors = []string{
	".showmore",
	"#showmore",
	"a.showmore",
	"button.showmore",
	".show-more",
	"#show-more",
	`[class*="loadmore"]`,
	`[class*="showmore"]`,
	`[class*="load-more"]`,
	`[class*="show-more"]`,
	`[id*="loadmore"]`,
	`[id*="showmore"]`,
}

var reLoadMoreText = regexp.MustCompile(`(?i)show\s*more|load\s*more|\bwięcej\b`)

// LoadStepKind tags the outcome of one loader iteration.
type LoadStepKind int

const (
	Exhausted LoadStepKind = iota
	ClickedSelector
	ClickedTextMatch
	GrewByScroll
)

func (k LoadStepKind) String() string {
	switch k {
	case ClickedSelector:
		return "clicked_selector"
	case ClickedTextMatch:
		return "clicked_text_match"
	case GrewByScroll:
		return "grew_by_scroll"
	default:
		return "exhausted"
	}
}

// LoadStep records what one iteration did. Selector is set for
// ClickedSelector, Text for ClickedTextMatch, and the heights for
// GrewByScroll and Exhausted.
type LoadStep struct {
	Kind     LoadStepKind
	Selector string
	Text     string
	Before   int
	After    int
}

// LoadOptions bounds and paces the progressive loader.
type LoadOptions struct {
	Max          int
	Selectors    []string
	Settle       time.Duration // after a click
	ScrollSettle time.Duration // after scrolling to the bottom
	Sleeper      Sleeper
}

// Pauses that are part of the interaction rhythm rather than configuration.
const (
	preClickPause   = 500 * time.Millisecond
	scrollProbeWait = 1 * time.Second
	scrollProbes    = 3
)

// LoadMore expands the page until nothing more loads or opts.Max
// iterations have run, then scrolls back to the top. It returns the number
// of iterations that loaded something.
func LoadMore(ctx context.Context, page Page, opts LoadOptions) int {
	count := 0
	for count < opts.Max && ctx.Err() == nil {
		step := loadStep(ctx, page, opts)
		if step.Kind == Exhausted {
			break
		}
		count++
		slog.Info("loaded more content",
			"iteration", count,
			"max", opts.Max,
			"kind", step.Kind.String(),
			"selector", step.Selector,
			"text", step.Text,
		)
	}

	if count > 0 {
		slog.Info("load more finished", "interactions", count)
	} else {
		slog.Info("no load more control found or everything already loaded")
	}

	if err := page.ScrollTo(ctx, 0); err != nil {
		slog.Debug("scroll to top failed", "error", err)
	}
	_ = opts.Sleeper.Sleep(ctx, preClickPause)
	return count
}

func loadStep(ctx context.Context, page Page, opts LoadOptions) LoadStep {
	sl := opts.Sleeper

	if err := page.ScrollToBottom(ctx); err != nil {
		slog.Debug("scroll to bottom failed", "error", err)
	}
	_ = sl.Sleep(ctx, opts.ScrollSettle)

	for _, sel := range opts.Selectors {
		els, err := page.Elements(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if !el.Visible(ctx) {
				continue
			}
			_ = el.ScrollIntoView(ctx)
			_ = sl.Sleep(ctx, preClickPause)
			if err := el.Click(ctx); err != nil {
				slog.Debug("load more click failed", "selector", sel, "error", err)
				continue
			}
			_ = sl.Sleep(ctx, opts.Settle)
			return LoadStep{Kind: ClickedSelector, Selector: sel}
		}
	}

	if links, err := page.Elements(ctx, "a, button"); err == nil {
		for _, el := range links {
			text, err := el.Text(ctx)
			if err != nil || !reLoadMoreText.MatchString(text) || !el.Visible(ctx) {
				continue
			}
			if err := el.Click(ctx); err != nil {
				continue
			}
			_ = sl.Sleep(ctx, opts.Settle)
			return LoadStep{Kind: ClickedTextMatch, Text: truncate(strings.TrimSpace(text), 30)}
		}
	}

	before, err := page.ScrollHeight(ctx)
	if err != nil {
		return LoadStep{Kind: Exhausted}
	}
	for i := 0; i < scrollProbes; i++ {
		_ = page.ScrollToBottom(ctx)
		_ = sl.Sleep(ctx, scrollProbeWait)
	}
	after, err := page.ScrollHeight(ctx)
	if err != nil || after <= before {
		return LoadStep{Kind: Exhausted, Before: before, After: after}
	}
	return LoadStep{Kind: GrewByScroll, Before: before, After: after}
}
