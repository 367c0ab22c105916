package scraper_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/models"
	"github.com/use-agent/oddscout/scraper"
	"github.com/use-agent/oddscout/scraper/scrapertest"
)

const (
	challengeHTML = `<html><body><div class="lds-ring"></div><p>Checking your browser</p></body></html>`
	contentHTML   = `<html><body><div class="contentmiddle"><div class="rcnt">Arsenal v Chelsea</div></div></body></html>`
)

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		NavigationTimeout:  time.Second,
		ChallengeWait:      5 * time.Second,
		RecoveryWait:       30 * time.Second,
		ContentWaitTimeout: 10 * time.Second,
		ContentExtraWait:   10 * time.Second,
		MaxLoadMore:        10,
		LoadMoreSettle:     2 * time.Second,
		ScrollSettle:       1500 * time.Millisecond,
		ConsentSettle:      2 * time.Second,
		VotesSettle:        3 * time.Second,
	}
}

func newNav(b *scrapertest.Browser) *scraper.Navigator {
	return scraper.NewNavigator(scraper.LaunchProfile{NavTimeout: time.Second}, b.Launch)
}

func codeOf(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func TestOpen_FailuresCloseBrowserOnce(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*scrapertest.Browser)
		wantCode string
	}{
		{
			name:     "navigation error",
			setup:    func(b *scrapertest.Browser) { b.Page.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED") },
			wantCode: models.ErrCodeNavigation,
		},
		{
			name:     "navigation timeout",
			setup:    func(b *scrapertest.Browser) { b.Page.NavigateErr = context.DeadlineExceeded },
			wantCode: models.ErrCodeTimeout,
		},
		{
			name:     "page creation",
			setup:    func(b *scrapertest.Browser) { b.NewPageErr = errors.New("target crashed") },
			wantCode: models.ErrCodeBrowserCrash,
		},
		{
			name: "close itself fails",
			setup: func(b *scrapertest.Browser) {
				b.Page.NavigateErr = errors.New("reset")
				b.CloseErr = errors.New("already gone")
			},
			wantCode: models.ErrCodeNavigation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := scrapertest.NewBrowser(&scrapertest.Page{})
			tt.setup(b)

			sess, err := newNav(b).Open(context.Background(), "https://example.test/")
			if err == nil || sess != nil {
				t.Fatalf("Open = %v, %v; want error", sess, err)
			}
			if got := codeOf(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
			if b.CloseCalls() != 1 {
				t.Errorf("CloseCalls = %d, want 1", b.CloseCalls())
			}
		})
	}
}

func TestOpen_LaunchFailure(t *testing.T) {
	nav := scraper.NewNavigator(scraper.LaunchProfile{}, scrapertest.FailingLaunch(errors.New("no chrome")))
	_, err := nav.Open(context.Background(), "https://example.test/")
	if codeOf(err) != models.ErrCodeBrowserCrash {
		t.Errorf("err = %v, want BROWSER_CRASH", err)
	}
}

func TestSession_CloseOnce(t *testing.T) {
	page := &scrapertest.Page{}
	b := scrapertest.NewBrowser(page)

	sess, err := newNav(b).Open(context.Background(), "https://example.test/")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = sess.Close()
	_ = sess.Close()

	if b.CloseCalls() != 1 {
		t.Errorf("CloseCalls = %d, want 1", b.CloseCalls())
	}
	if _, err := sess.Page().HTML(context.Background()); !errors.Is(err, scraper.ErrSessionClosed) {
		t.Errorf("HTML after close = %v, want ErrSessionClosed", err)
	}
	if page.UsedAfterClose() != 0 {
		t.Errorf("page used %d times after close", page.UsedAfterClose())
	}
}

func TestCapture_StageFailuresCloseOnce(t *testing.T) {
	tests := []struct {
		name  string
		page  func() *scrapertest.Page
		panic bool
	}{
		{
			name: "consent lookup errors",
			page: func() *scrapertest.Page {
				return &scrapertest.Page{ElementsErr: errors.New("detached"), HTMLs: []string{contentHTML}}
			},
		},
		{
			name: "html extraction fails",
			page: func() *scrapertest.Page {
				return &scrapertest.Page{HTMLErr: errors.New("target closed")}
			},
		},
		{
			name: "panic during consent",
			page: func() *scrapertest.Page {
				return &scrapertest.Page{OnElements: func(string) { panic("boom") }}
			},
			panic: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := tt.page()
			b := scrapertest.NewBrowser(page)
			c := scraper.NewCapturer(newNav(b), testScraperConfig(), &scrapertest.Sleeper{})

			func() {
				defer func() {
					r := recover()
					if (r != nil) != tt.panic {
						t.Errorf("recover() = %v, panic expected %v", r, tt.panic)
					}
				}()
				_, _ = c.Capture(context.Background(), "football")
			}()

			if b.CloseCalls() != 1 {
				t.Errorf("CloseCalls = %d, want 1", b.CloseCalls())
			}
			if page.UsedAfterClose() != 0 {
				t.Errorf("page used %d times after close", page.UsedAfterClose())
			}
		})
	}
}

func TestCapture_ResolvesOnSecondCheck(t *testing.T) {
	page := &scrapertest.Page{HTMLs: []string{challengeHTML, contentHTML}}
	b := scrapertest.NewBrowser(page)
	sl := &scrapertest.Sleeper{}

	res, err := scraper.NewCapturer(newNav(b), testScraperConfig(), sl).Capture(context.Background(), "Basketball")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !res.ChallengeEncountered {
		t.Error("ChallengeEncountered should be true")
	}
	if !strings.Contains(res.HTML, `class="rcnt"`) {
		t.Errorf("HTML = %q", res.HTML)
	}
	if res.PagesLoaded != 1 {
		t.Errorf("PagesLoaded = %d, want 1", res.PagesLoaded)
	}
	if nav := page.Navigated(); len(nav) != 1 || nav[0] != scraper.ResolveSportURL("basketball") {
		t.Errorf("navigated = %v", nav)
	}
	var sawRecovery bool
	for _, w := range sl.Waits() {
		if w == 30*time.Second {
			sawRecovery = true
		}
	}
	if !sawRecovery {
		t.Error("expected the 30s recovery wait")
	}
	if b.CloseCalls() != 1 {
		t.Errorf("CloseCalls = %d", b.CloseCalls())
	}
}

func TestCapture_Unresolved(t *testing.T) {
	page := &scrapertest.Page{HTMLs: []string{challengeHTML}}
	b := scrapertest.NewBrowser(page)

	res, err := scraper.NewCapturer(newNav(b), testScraperConfig(), &scrapertest.Sleeper{}).Capture(context.Background(), "tennis")
	if codeOf(err) != models.ErrCodeChallenge {
		t.Fatalf("err = %v, want CHALLENGE_UNRESOLVED", err)
	}
	if res == nil || res.HTML != challengeHTML {
		t.Errorf("result should carry the challenge HTML, got %+v", res)
	}
	if b.CloseCalls() != 1 {
		t.Errorf("CloseCalls = %d", b.CloseCalls())
	}
}

func TestCapture_NoContentWaitsLonger(t *testing.T) {
	page := &scrapertest.Page{HTMLs: []string{`<html><body><p>maintenance</p></body></html>`}}
	b := scrapertest.NewBrowser(page)
	sl := &scrapertest.Sleeper{}

	res, err := scraper.NewCapturer(newNav(b), testScraperConfig(), sl).Capture(context.Background(), "football")
	if err != nil {
		t.Fatalf("unknown page should still be captured: %v", err)
	}
	if res.ChallengeEncountered {
		t.Error("no challenge expected")
	}
	// Two simulations: one up front, one after the extra content wait.
	var tops int
	for _, s := range page.Scrolls() {
		if s == "by+300" {
			tops++
		}
	}
	if tops != 2 {
		t.Errorf("human simulations = %d, want 2", tops)
	}
}

func TestFanVotes_SnapshotFailureClosesOnce(t *testing.T) {
	page := &scrapertest.Page{SnapshotErr: errors.New("execution context destroyed")}
	b := scrapertest.NewBrowser(page)

	res, err := scraper.NewVoteReader(newNav(b), testScraperConfig(), &scrapertest.Sleeper{}).
		FanVotes(context.Background(), "https://www.sofascore.com/x")
	if codeOf(err) != models.ErrCodeExtraction {
		t.Errorf("err = %v, want CONTENT_EXTRACTION_FAILED", err)
	}
	if res == nil || res.Success || res.Error == nil {
		t.Fatalf("result = %+v", res)
	}
	if b.CloseCalls() != 1 {
		t.Errorf("CloseCalls = %d", b.CloseCalls())
	}
}

func TestFanVotes_Bars(t *testing.T) {
	page := &scrapertest.Page{SnapshotHTML: `<html><body>
		<div><h2>Who will win?</h2>
		<div class="VoteBar" style="width: 45%"></div>
		<div class="VoteBar" style="width: 20%"></div>
		<div class="VoteBar" style="width: 35%"></div>
		</div>
		<p>Based on 2,017 votes from fans and experts</p></body></html>`}
	b := scrapertest.NewBrowser(page)

	res, err := scraper.NewVoteReader(newNav(b), testScraperConfig(), &scrapertest.Sleeper{}).
		FanVotes(context.Background(), "https://www.sofascore.com/x")
	if err != nil {
		t.Fatalf("FanVotes: %v", err)
	}
	if !res.Success || *res.HomeWinPct != 45 || *res.DrawPct != 20 || *res.AwayWinPct != 35 {
		t.Fatalf("result = %+v", res)
	}
	if res.TotalVotes == nil || *res.TotalVotes != 2017 {
		t.Errorf("TotalVotes = %v", res.TotalVotes)
	}
	if got := page.Scrolls(); len(got) != 1 || got[0] != "by+500" {
		t.Errorf("scrolls = %v, want [by+500]", got)
	}
}
