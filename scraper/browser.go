package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/fanvotes"
	"github.com/use-agent/oddscout/models"
	"github.com/ysmood/gson"
)

// LaunchProfile is the evasion profile for one process. It is built once
// from config and handed to NewNavigator; nothing reads it from globals.
type LaunchProfile struct {
	Headless     bool
	NoSandbox    bool
	BrowserBin   string
	Proxy        string
	Stealth      bool
	UserAgent    string
	Width        int
	Height       int
	Headers      map[string]string
	BlockAds     bool
	NavTimeout   time.Duration
	AcceptLocale string
}

// ProfileFromConfig derives the launch profile from browser and scraper
// settings.
func ProfileFromConfig(b config.BrowserConfig, s config.ScraperConfig) LaunchProfile {
	return LaunchProfile{
		Headless:   b.Headless,
		NoSandbox:  b.NoSandbox,
		BrowserBin: b.BrowserBin,
		Proxy:      b.DefaultProxy,
		Stealth:    b.Stealth,
		UserAgent:  b.UserAgent,
		Width:      b.WindowWidth,
		Height:     b.WindowHeight,
		Headers: map[string]string{
			"Accept-Language": b.AcceptLanguage,
			"Accept":          b.Accept,
		},
		BlockAds:     b.BlockAds,
		NavTimeout:   s.NavigationTimeout,
		AcceptLocale: b.AcceptLanguage,
	}
}

// actionTimeout bounds a single element interaction.
const actionTimeout = 10 * time.Second

// LaunchRod starts a local Chromium through rod's launcher with the
// profile's stealth flags and connects to it.
func LaunchRod(ctx context.Context, p LaunchProfile) (Browser, error) {
	l := launcher.New().
		Headless(p.Headless).
		NoSandbox(p.NoSandbox)

	if p.BrowserBin != "" {
		l = l.Bin(p.BrowserBin)
	}
	if p.Proxy != "" {
		l = l.Proxy(p.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "IsolateOrigins,site-per-process")
	l.Set(flags.Flag("disable-setuid-sandbox"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-accelerated-2d-canvas"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("no-zygote"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", p.Width, p.Height))
	if p.UserAgent != "" {
		l.Set(flags.Flag("user-agent"), p.UserAgent)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	return &rodBrowser{browser: browser, launcher: l}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (b *rodBrowser) NewPage(ctx context.Context, p LaunchProfile) (Page, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}

	// Everything below must be in place before the first navigation.
	if p.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             p.Width,
		Height:            p.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Debug("set viewport failed", "error", err)
	}
	if p.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      p.UserAgent,
			AcceptLanguage: p.AcceptLocale,
		}); err != nil {
			slog.Debug("set user agent failed", "error", err)
		}
	}
	if headers := nonEmpty(p.Headers); len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}

	rp := &rodPage{page: page}
	if p.BlockAds {
		rp.router = setupHijack(page)
	}
	return rp, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page   *rod.Page
	router *rod.HijackRouter
}

// networkIdleBudget caps the request-idle wait. A page holding a long-poll
// open never goes idle; past the budget the wait degrades to DOM stability.
const networkIdleBudget = 15 * time.Second

// idleBudget returns limit, or half the time left before ctx's deadline if
// that is shorter, leaving room for the DOM-stability fallback.
func idleBudget(ctx context.Context, limit time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if half := time.Until(dl) / 2; half < limit {
			return half
		}
	}
	return limit
}

func (r *rodPage) Navigate(ctx context.Context, url string) error {
	p := r.page.Context(ctx)

	// WaitRequestIdle must be armed before Navigate, and it shares the
	// Fetch domain with the hijack router, so blocking ads degrades the
	// wait to DOM stability.
	var (
		waitIdle func()
		idleCtx  context.Context
	)
	if r.router == nil {
		var cancel context.CancelFunc
		idleCtx, cancel = context.WithTimeout(ctx, idleBudget(ctx, networkIdleBudget))
		defer cancel()
		waitIdle = r.page.Context(idleCtx).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	}

	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}

	settled := false
	if waitIdle != nil {
		waitIdle()
		settled = idleCtx.Err() == nil
		if !settled && ctx.Err() == nil {
			slog.Debug("network did not go idle, waiting for DOM stability", "url", url)
		}
	}
	if !settled && ctx.Err() == nil {
		if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
			slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	return nil
}

func (r *rodPage) HTML(ctx context.Context) (string, error) {
	return r.page.Context(ctx).HTML()
}

func (r *rodPage) ScrollBy(ctx context.Context, dy int) error {
	_, err := r.page.Context(ctx).Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	return err
}

func (r *rodPage) ScrollTo(ctx context.Context, y int) error {
	_, err := r.page.Context(ctx).Eval(`(y) => window.scrollTo(0, y)`, y)
	return err
}

func (r *rodPage) ScrollToBottom(ctx context.Context) error {
	_, err := r.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (r *rodPage) ScrollHeight(ctx context.Context) (int, error) {
	res, err := r.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (r *rodPage) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := r.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out, nil
}

func (r *rodPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	_, err := p.Element(selector)
	return err
}

func (r *rodPage) Snapshot(ctx context.Context) (string, string, error) {
	res, err := r.page.Context(ctx).Eval(fanvotes.SnapshotJS)
	if err != nil {
		return "", "", err
	}
	return res.Value.Get("html").Str(), res.Value.Get("text").Str(), nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Visible(ctx context.Context) bool {
	res, err := e.el.Context(ctx).Eval(`() => {
		const r = this.getBoundingClientRect();
		const s = window.getComputedStyle(this);
		return r.width > 0 && r.height > 0 && s.display !== 'none' && s.visibility !== 'hidden';
	}`)
	return err == nil && res.Value.Bool()
}

func (e *rodElement) InViewport(ctx context.Context) bool {
	res, err := e.el.Context(ctx).Eval(`() => {
		const r = this.getBoundingClientRect();
		return r.width > 0 && r.height > 0 && r.bottom > 0 && r.right > 0 &&
			r.top < window.innerHeight && r.left < window.innerWidth;
	}`)
	return err == nil && res.Value.Bool()
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) ScrollIntoView(ctx context.Context) error {
	return e.el.Context(ctx).ScrollIntoView()
}

func (e *rodElement) Click(ctx context.Context) error {
	actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	return e.el.Context(actionCtx).Click(proto.InputMouseButtonLeft, 1)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

func nonEmpty(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
