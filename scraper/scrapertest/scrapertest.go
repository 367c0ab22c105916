// Package scrapertest provides in-memory implementations of the scraper
// browser interfaces for pipeline tests.
package scrapertest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/use-agent/oddscout/scraper"
)

// ErrUseAfterClose is returned by a Page whose browser has been closed.
var ErrUseAfterClose = errors.New("scrapertest: page used after browser close")

// Browser is a fake scraper.Browser serving a single Page.
type Browser struct {
	Page *Page

	// NewPageErr and CloseErr inject failures.
	NewPageErr error
	CloseErr   error

	mu          sync.Mutex
	closeCalls  int
	launchCalls int
}

// NewBrowser returns a Browser serving page.
func NewBrowser(page *Page) *Browser {
	b := &Browser{Page: page}
	page.browser = b
	return b
}

// Launch is a scraper.LaunchFunc returning b.
func (b *Browser) Launch(context.Context, scraper.LaunchProfile) (scraper.Browser, error) {
	b.mu.Lock()
	b.launchCalls++
	b.mu.Unlock()
	return b, nil
}

// FailingLaunch is a scraper.LaunchFunc that always returns err.
func FailingLaunch(err error) scraper.LaunchFunc {
	return func(context.Context, scraper.LaunchProfile) (scraper.Browser, error) {
		return nil, err
	}
}

func (b *Browser) NewPage(context.Context, scraper.LaunchProfile) (scraper.Page, error) {
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	return b.Page, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeCalls++
	return b.CloseErr
}

// CloseCalls reports how many times Close ran.
func (b *Browser) CloseCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeCalls
}

// LaunchCalls reports how many times Launch ran.
func (b *Browser) LaunchCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.launchCalls
}

func (b *Browser) closed() bool {
	if b == nil {
		return false
	}
	return b.CloseCalls() > 0
}

// Page is a scripted scraper.Page.
type Page struct {
	// HTMLs are returned by successive HTML calls; the last one repeats.
	HTMLs []string

	// Heights are returned by successive ScrollHeight calls; the last one
	// repeats. Empty means a constant 1000.
	Heights []int

	// Elems maps a selector to the elements Elements returns for it.
	Elems map[string][]*Element

	// Present lists selectors WaitFor finds.
	Present map[string]bool

	// SnapshotHTML and SnapshotText are returned by Snapshot.
	SnapshotHTML string
	SnapshotText string

	// Injected failures.
	NavigateErr error
	HTMLErr     error
	SnapshotErr error
	ElementsErr error

	// OnElements runs at the top of every Elements call; a panic here
	// simulates a crash inside a pipeline stage.
	OnElements func(selector string)

	browser *Browser

	mu          sync.Mutex
	htmlCalls   int
	heightCalls int
	navigated   []string
	scrolls     []string
	usedClosed  int
}

func (p *Page) check() error {
	if p.browser.closed() {
		p.mu.Lock()
		p.usedClosed++
		p.mu.Unlock()
		return ErrUseAfterClose
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.check(); err != nil {
		return err
	}
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	p.mu.Unlock()
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	return ctx.Err()
}

func (p *Page) HTML(context.Context) (string, error) {
	if err := p.check(); err != nil {
		return "", err
	}
	if p.HTMLErr != nil {
		return "", p.HTMLErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.HTMLs) == 0 {
		return "<html><body></body></html>", nil
	}
	i := min(p.htmlCalls, len(p.HTMLs)-1)
	p.htmlCalls++
	return p.HTMLs[i], nil
}

func (p *Page) scroll(op string) error {
	if err := p.check(); err != nil {
		return err
	}
	p.mu.Lock()
	p.scrolls = append(p.scrolls, op)
	p.mu.Unlock()
	return nil
}

func (p *Page) ScrollBy(_ context.Context, dy int) error {
	if dy >= 0 {
		return p.scroll("by+" + strconv.Itoa(dy))
	}
	return p.scroll("by" + strconv.Itoa(dy))
}

func (p *Page) ScrollTo(_ context.Context, y int) error {
	return p.scroll("to" + strconv.Itoa(y))
}

func (p *Page) ScrollToBottom(context.Context) error {
	return p.scroll("bottom")
}

func (p *Page) ScrollHeight(context.Context) (int, error) {
	if err := p.check(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Heights) == 0 {
		return 1000, nil
	}
	i := min(p.heightCalls, len(p.Heights)-1)
	p.heightCalls++
	return p.Heights[i], nil
}

func (p *Page) Elements(_ context.Context, selector string) ([]scraper.Element, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	if p.OnElements != nil {
		p.OnElements(selector)
	}
	if p.ElementsErr != nil {
		return nil, p.ElementsErr
	}
	els := p.Elems[selector]
	out := make([]scraper.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (p *Page) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	if err := p.check(); err != nil {
		return err
	}
	if p.Present[selector] {
		return nil
	}
	return context.DeadlineExceeded
}

func (p *Page) Snapshot(context.Context) (string, string, error) {
	if err := p.check(); err != nil {
		return "", "", err
	}
	if p.SnapshotErr != nil {
		return "", "", p.SnapshotErr
	}
	return p.SnapshotHTML, p.SnapshotText, nil
}

// Navigated returns the URLs passed to Navigate.
func (p *Page) Navigated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

// Scrolls returns the scroll operations in call order.
func (p *Page) Scrolls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scrolls...)
}

// UsedAfterClose counts calls made after the browser closed.
func (p *Page) UsedAfterClose() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usedClosed
}

// Element is a scripted scraper.Element.
type Element struct {
	Label     string
	Hidden    bool
	OffScreen bool
	ClickErr  error

	// OnClick runs after a successful click.
	OnClick func()

	mu     sync.Mutex
	clicks int
}

func (e *Element) Visible(context.Context) bool    { return !e.Hidden }
func (e *Element) InViewport(context.Context) bool { return !e.Hidden && !e.OffScreen }

func (e *Element) Text(context.Context) (string, error) { return e.Label, nil }

func (e *Element) ScrollIntoView(context.Context) error { return nil }

func (e *Element) Click(context.Context) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.mu.Lock()
	e.clicks++
	e.mu.Unlock()
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

// Clicks reports how many clicks succeeded.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Sleeper records requested waits without sleeping.
type Sleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Between records hi, the longest wait it stands in for.
func (s *Sleeper) Between(ctx context.Context, _, hi time.Duration) error {
	return s.Sleep(ctx, hi)
}

// Waits returns the recorded durations.
func (s *Sleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

// Total is the sum of recorded durations.
func (s *Sleeper) Total() time.Duration {
	var t time.Duration
	for _, d := range s.Waits() {
		t += d
	}
	return t
}
