package scraper

import (
	"context"
	"errors"
	"time"
)

// ErrSessionClosed is returned by every Page call made after the owning
// session has closed its browser.
var ErrSessionClosed = errors.New("scraper: session closed")

// Browser is one launched browser process.
type Browser interface {
	// NewPage opens a tab and applies the profile's evasion settings to it
	// before any navigation happens.
	NewPage(ctx context.Context, profile LaunchProfile) (Page, error)

	// Close terminates the browser and releases its resources.
	Close() error
}

// LaunchFunc starts a browser for the given profile.
type LaunchFunc func(ctx context.Context, profile LaunchProfile) (Browser, error)

// Page is the subset of tab control the capture and vote pipelines need.
type Page interface {
	// Navigate loads url and waits for the network (or DOM) to settle.
	Navigate(ctx context.Context, url string) error

	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)

	ScrollBy(ctx context.Context, dy int) error
	ScrollTo(ctx context.Context, y int) error
	ScrollToBottom(ctx context.Context) error
	ScrollHeight(ctx context.Context) (int, error)

	// Elements returns every element currently matching selector without
	// waiting. A selector with no matches yields an empty slice.
	Elements(ctx context.Context, selector string) ([]Element, error)

	// WaitFor blocks until selector matches or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Snapshot evaluates the fan-vote snapshot script and returns the
	// annotated markup and the body's rendered text.
	Snapshot(ctx context.Context) (html, text string, err error)
}

// Element is a handle to one DOM node.
type Element interface {
	// Visible reports a non-zero box that is neither display:none nor
	// visibility:hidden.
	Visible(ctx context.Context) bool

	// InViewport reports whether the box intersects the viewport.
	InViewport(ctx context.Context) bool

	Text(ctx context.Context) (string, error)
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
}

// closedPage stands in for a session's page once the browser is gone.
type closedPage struct{}

func (closedPage) Navigate(context.Context, string) error           { return ErrSessionClosed }
func (closedPage) HTML(context.Context) (string, error)             { return "", ErrSessionClosed }
func (closedPage) ScrollBy(context.Context, int) error              { return ErrSessionClosed }
func (closedPage) ScrollTo(context.Context, int) error              { return ErrSessionClosed }
func (closedPage) ScrollToBottom(context.Context) error             { return ErrSessionClosed }
func (closedPage) ScrollHeight(context.Context) (int, error)        { return 0, ErrSessionClosed }
func (closedPage) Elements(context.Context, string) ([]Element, error) {
	return nil, ErrSessionClosed
}
func (closedPage) WaitFor(context.Context, string, time.Duration) error { return ErrSessionClosed }
func (closedPage) Snapshot(context.Context) (string, string, error) {
	return "", "", ErrSessionClosed
}
