package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/fanvotes"
	"github.com/use-agent/oddscout/models"
)

const (
	voteConsentSettle = 1 * time.Second
	voteScrollSettle  = 2 * time.Second
)

// VoteReader drives vote mode: load a match page and read its fan vote.
type VoteReader struct {
	nav        *Navigator
	cfg        config.ScraperConfig
	sleeper    Sleeper
	strategies []fanvotes.Strategy
}

// NewVoteReader returns a VoteReader using fanvotes.DefaultStrategies.
func NewVoteReader(nav *Navigator, cfg config.ScraperConfig, sl Sleeper) *VoteReader {
	if sl == nil {
		sl = RandomSleeper{}
	}
	return &VoteReader{nav: nav, cfg: cfg, sleeper: sl, strategies: fanvotes.DefaultStrategies}
}

// FanVotes always returns a result. A missing or unopened vote is reported
// in the result alone; pipeline failures (launch, navigation, snapshot) are
// also returned as the error.
func (v *VoteReader) FanVotes(ctx context.Context, url string) (*models.FanVoteResult, error) {
	res := models.NewFanVoteResult(url)

	sess, err := v.nav.Open(ctx, url)
	if err != nil {
		res.Fail(err.Error())
		return res, err
	}
	defer sess.Close()
	page := sess.Page()

	_ = v.sleeper.Sleep(ctx, v.cfg.VotesSettle)
	DismissConsent(ctx, page, v.sleeper, VoteConsentSelectors, voteConsentSettle)

	// The vote widget sits below the fold.
	if err := page.ScrollBy(ctx, 500); err != nil {
		slog.Debug("scroll failed", "error", err)
	}
	_ = v.sleeper.Sleep(ctx, voteScrollSettle)

	html, text, err := page.Snapshot(ctx)
	if err != nil {
		se := models.NewScrapeError(models.ErrCodeExtraction, "failed to snapshot page", err)
		res.Fail(se.Error())
		return res, se
	}
	snap, err := fanvotes.NewSnapshot(html, text)
	if err != nil {
		se := models.NewScrapeError(models.ErrCodeExtraction, "failed to parse page", err)
		res.Fail(se.Error())
		return res, se
	}

	out := fanvotes.Extract(snap, v.strategies)
	out.Apply(res)
	switch {
	case out.Found:
		slog.Info("fan votes found", "strategy", out.Strategy, "url", url)
	case out.PreMatch:
		slog.Info("voting not open yet", "url", url)
	default:
		slog.Warn("fan votes not found", "url", url)
	}
	return res, nil
}
