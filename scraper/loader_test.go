package scraper_test

import (
	"context"
	"testing"
	"time"

	"github.com/use-agent/oddscout/scraper"
	"github.com/use-agent/oddscout/scraper/scrapertest"
)

func loadOpts(limit int) scraper.LoadOptions {
	return scraper.LoadOptions{
		Max:          limit,
		Selectors:    scraper.LoadMoreSelectors,
		Settle:       2 * time.Second,
		ScrollSettle: 1500 * time.Millisecond,
		Sleeper:      &scrapertest.Sleeper{},
	}
}

func TestLoadMore_NeverExceedsMax(t *testing.T) {
	for _, limit := range []int{1, 3, 10} {
		btn := &scrapertest.Element{Label: "Show more"}
		page := &scrapertest.Page{
			Elems: map[string][]*scrapertest.Element{
				".showmore":  {btn},
				"#show-more": {{Label: "more"}, {Label: "more"}},
			},
			Heights: []int{1000, 2000, 3000, 4000, 5000},
		}

		got := scraper.LoadMore(context.Background(), page, loadOpts(limit))
		if got != limit {
			t.Errorf("max=%d: LoadMore = %d", limit, got)
		}
		if btn.Clicks() != limit {
			t.Errorf("max=%d: clicks = %d", limit, btn.Clicks())
		}
	}
}

func TestLoadMore_ZeroMax(t *testing.T) {
	btn := &scrapertest.Element{}
	page := &scrapertest.Page{Elems: map[string][]*scrapertest.Element{".showmore": {btn}}}
	if got := scraper.LoadMore(context.Background(), page, loadOpts(0)); got != 0 {
		t.Errorf("LoadMore = %d, want 0", got)
	}
	if btn.Clicks() != 0 {
		t.Error("no click expected")
	}
}

func TestLoadMore_SkipsHiddenAndFallsBackToText(t *testing.T) {
	hidden := &scrapertest.Element{Hidden: true}
	link := &scrapertest.Element{Label: "  Pokaż więcej  "}
	link.OnClick = func() {
		if link.Clicks() == 2 {
			link.Hidden = true
		}
	}
	page := &scrapertest.Page{
		Elems: map[string][]*scrapertest.Element{
			`[class*="loadmore"]`: {hidden},
			"a, button":           {{Label: "Home"}, link},
		},
	}

	got := scraper.LoadMore(context.Background(), page, loadOpts(10))
	if got != 2 {
		t.Errorf("LoadMore = %d, want 2", got)
	}
	if hidden.Clicks() != 0 {
		t.Error("hidden element was clicked")
	}
}

func TestLoadMore_MatchesLongerPolishLabel(t *testing.T) {
	link := &scrapertest.Element{Label: "Więcej wyników"}
	link.OnClick = func() { link.Hidden = true }
	page := &scrapertest.Page{Elems: map[string][]*scrapertest.Element{
		"a, button": {link},
	}}

	if got := scraper.LoadMore(context.Background(), page, loadOpts(10)); got != 1 {
		t.Errorf("LoadMore = %d, want 1", got)
	}
	if link.Clicks() != 1 {
		t.Errorf("clicks = %d, want 1", link.Clicks())
	}
}

func TestLoadMore_InfiniteScroll(t *testing.T) {
	// before/after pairs: (1000,1800) grows, (1800,1800) stops.
	page := &scrapertest.Page{Heights: []int{1000, 1800, 1800, 1800}}

	got := scraper.LoadMore(context.Background(), page, loadOpts(10))
	if got != 1 {
		t.Errorf("LoadMore = %d, want 1", got)
	}
	scrolls := page.Scrolls()
	if len(scrolls) == 0 || scrolls[len(scrolls)-1] != "to0" {
		t.Errorf("last scroll = %v, want scroll to top", scrolls)
	}
}

func TestLoadMore_ExhaustedImmediately(t *testing.T) {
	page := &scrapertest.Page{}
	if got := scraper.LoadMore(context.Background(), page, loadOpts(10)); got != 0 {
		t.Errorf("LoadMore = %d, want 0", got)
	}
}

func TestLoadMore_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	btn := &scrapertest.Element{}
	btn.OnClick = cancel
	page := &scrapertest.Page{Elems: map[string][]*scrapertest.Element{".showmore": {btn}}}

	if got := scraper.LoadMore(ctx, page, loadOpts(10)); got != 1 {
		t.Errorf("LoadMore = %d, want 1", got)
	}
}
