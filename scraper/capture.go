package scraper

import (
	"context"
	"log/slog"

	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/models"
)

// Capturer drives capture mode: load a predictions page past any bot
// challenge, expand it, and return its full markup.
type Capturer struct {
	nav     *Navigator
	cfg     config.ScraperConfig
	sleeper Sleeper
	markers Markers
}

// NewCapturer returns a Capturer using DefaultMarkers.
func NewCapturer(nav *Navigator, cfg config.ScraperConfig, sl Sleeper) *Capturer {
	if sl == nil {
		sl = RandomSleeper{}
	}
	return &Capturer{nav: nav, cfg: cfg, sleeper: sl, markers: DefaultMarkers}
}

// Capture loads the predictions page for sport.
//
// When a challenge is still showing after the recovery attempt, Capture
// returns both a result (its HTML is the challenge page, for forensics) and
// a CHALLENGE_UNRESOLVED error. The browser is closed on every path.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Open           – launch, navigate, wait for network idle
//  2. Challenge wait – give an interstitial time to run
//  3. Human + consent
//  4. Content wait   – extra wait and another simulation if nothing shows
//  5. Load more      – bounded expansion
//  6. Classify       – one recovery attempt if still challenged
func (c *Capturer) Capture(ctx context.Context, sport string) (*models.ScrapeResult, error) {
	url := ResolveSportURL(sport)
	slog.Info("capture started", "sport", sport, "url", url)

	// ── 1. Open ──────────────────────────────────────────────────────
	sess, err := c.nav.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	page := sess.Page()

	// ── 2. Challenge wait ────────────────────────────────────────────
	slog.Info("waiting for challenge to clear", "wait", c.cfg.ChallengeWait)
	_ = c.sleeper.Sleep(ctx, c.cfg.ChallengeWait)

	// ── 3. Human + consent ───────────────────────────────────────────
	SimulateHuman(ctx, page, c.sleeper)
	DismissConsent(ctx, page, c.sleeper, CaptureConsentSelectors, c.cfg.ConsentSettle)

	// ── 4. Content wait ──────────────────────────────────────────────
	if _, ok := WaitForContent(ctx, page, ContentSelectors, c.cfg.ContentWaitTimeout); !ok {
		slog.Warn("no content found, waiting longer", "wait", c.cfg.ContentExtraWait)
		_ = c.sleeper.Sleep(ctx, c.cfg.ContentExtraWait)
		SimulateHuman(ctx, page, c.sleeper)
	}

	// ── 5. Load more ─────────────────────────────────────────────────
	loaded := LoadMore(ctx, page, LoadOptions{
		Max:          c.cfg.MaxLoadMore,
		Selectors:    LoadMoreSelectors,
		Settle:       c.cfg.LoadMoreSettle,
		ScrollSettle: c.cfg.ScrollSettle,
		Sleeper:      c.sleeper,
	})
	slog.Info("pages loaded", "count", loaded+1)

	// ── 6. Classify ──────────────────────────────────────────────────
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to extract page HTML", err)
	}
	res := &models.ScrapeResult{URL: url, PagesLoaded: loaded + 1}

	st := ClassifyChallenge(html, c.markers)
	if st.Challenge {
		res.ChallengeEncountered = true
	}
	if st.StillChallenged() {
		slog.Warn("challenge not resolved, final attempt", "wait", c.cfg.RecoveryWait)
		_ = c.sleeper.Sleep(ctx, c.cfg.RecoveryWait)
		SimulateHuman(ctx, page, c.sleeper)
		DismissConsent(ctx, page, c.sleeper, CaptureConsentSelectors, c.cfg.ConsentSettle)

		html, err = page.HTML(ctx)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to extract page HTML", err)
		}
		st = ClassifyChallenge(html, c.markers)
		if st.StillChallenged() {
			res.HTML = html
			return res, models.NewScrapeError(models.ErrCodeChallenge, "bot challenge still present after recovery", nil)
		}
		slog.Info("challenge resolved after extra wait")
	}

	if !st.Content {
		slog.Warn("unrecognised page, saving for analysis", "url", url)
	} else {
		slog.Info("predictions page loaded", "bytes", len(html))
	}
	res.HTML = html
	return res, nil
}
