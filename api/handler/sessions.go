package handler

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/scraper"
)

// Sessions gates browser work. Each request runs its own browser, so the
// gate bounds how many Chromium processes the server keeps alive at once.
type Sessions struct {
	sem     *semaphore.Weighted
	active  atomic.Int64
	limit   int64
	nav     *scraper.Navigator
	cfg     config.ScraperConfig
	sleeper scraper.Sleeper
}

// NewSessions allows limit concurrent browser sessions (minimum 1). A nil
// sleeper waits for real.
func NewSessions(nav *scraper.Navigator, cfg config.ScraperConfig, sl scraper.Sleeper, limit int64) *Sessions {
	if limit < 1 {
		limit = 1
	}
	return &Sessions{
		sem:     semaphore.NewWeighted(limit),
		limit:   limit,
		nav:     nav,
		cfg:     cfg,
		sleeper: sl,
	}
}

// tryAcquire reserves a session slot without blocking.
func (s *Sessions) tryAcquire() bool {
	if !s.sem.TryAcquire(1) {
		return false
	}
	s.active.Add(1)
	return true
}

func (s *Sessions) release() {
	s.active.Add(-1)
	s.sem.Release(1)
}

// Busy reports whether every slot is taken.
func (s *Sessions) Busy() bool {
	return s.active.Load() >= s.limit
}

func (s *Sessions) capturer() *scraper.Capturer {
	return scraper.NewCapturer(s.nav, s.cfg, s.sleeper)
}

func (s *Sessions) voteReader() *scraper.VoteReader {
	return scraper.NewVoteReader(s.nav, s.cfg, s.sleeper)
}
