package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/use-agent/oddscout/models"
)

// Navigator opens browser sessions with a fixed launch profile.
type Navigator struct {
	profile LaunchProfile
	launch  LaunchFunc
}

// NewNavigator returns a Navigator that starts browsers with launch. A nil
// launch uses LaunchRod.
func NewNavigator(profile LaunchProfile, launch LaunchFunc) *Navigator {
	if launch == nil {
		launch = LaunchRod
	}
	return &Navigator{profile: profile, launch: launch}
}

// Profile returns the navigator's launch profile.
func (n *Navigator) Profile() LaunchProfile {
	return n.profile
}

// Open launches a browser, prepares one page and navigates it to url
// within the profile's navigation timeout. On any failure after launch the
// browser is closed before Open returns.
//
// Lifecycle:
//
//  1. Launch      – browser process with stealth flags
//  2. Page        – stealth script, viewport, user agent, headers
//  3. Navigate    – bounded by NavTimeout, waits for network idle
func (n *Navigator) Open(ctx context.Context, url string) (_ *Session, err error) {
	slog.Info("starting browser session", "url", url)

	// ── 1. Launch ────────────────────────────────────────────────────
	browser, err := n.launch(ctx, n.profile)
	if err != nil {
		return nil, coded(err, models.ErrCodeBrowserCrash, "failed to launch browser")
	}
	sess := &Session{URL: url, browser: browser, page: closedPage{}}
	defer func() {
		if err != nil {
			_ = sess.Close()
		}
	}()

	// ── 2. Page ──────────────────────────────────────────────────────
	page, err := browser.NewPage(ctx, n.profile)
	if err != nil {
		return nil, coded(err, models.ErrCodeBrowserCrash, "failed to open page")
	}
	sess.mu.Lock()
	sess.page = page
	sess.mu.Unlock()

	// ── 3. Navigate ──────────────────────────────────────────────────
	navCtx := ctx
	if n.profile.NavTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, n.profile.NavTimeout)
		defer cancel()
	}
	if err := page.Navigate(navCtx, url); err != nil {
		var se *models.ScrapeError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	slog.Info("page loaded", "url", url)
	return sess, nil
}

// Session is one browser plus its single page, owned by one invocation.
type Session struct {
	URL string

	browser  Browser
	mu       sync.Mutex
	page     Page
	once     sync.Once
	closeErr error
}

// Page returns the session's page. After Close it returns a page whose
// every call fails with ErrSessionClosed.
func (s *Session) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Close closes the browser exactly once; later calls return the first
// result.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.page = closedPage{}
		s.mu.Unlock()
		s.closeErr = s.browser.Close()
		if s.closeErr != nil {
			slog.Warn("browser close failed", "error", s.closeErr)
		} else {
			slog.Info("browser closed")
		}
	})
	return s.closeErr
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// map them to exit codes and HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

// coded keeps an existing ScrapeError and wraps anything else under code.
func coded(err error, code, msg string) error {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return err
	}
	return models.NewScrapeError(code, msg, err)
}
