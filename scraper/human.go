package scraper

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Sleeper performs every wait in the pipeline so tests can run without
// real delays. Both methods return early with ctx.Err() on cancellation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
	Between(ctx context.Context, lo, hi time.Duration) error
}

// RandomSleeper sleeps on the wall clock, drawing Between durations
// uniformly from [lo, hi].
type RandomSleeper struct{}

func (RandomSleeper) Sleep(ctx context.Context, d time.Duration) error {
	return sleepWithContext(ctx, d)
}

func (RandomSleeper) Between(ctx context.Context, lo, hi time.Duration) error {
	d := lo
	if hi > lo {
		d += rand.N(hi - lo + 1)
	}
	return sleepWithContext(ctx, d)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SimulateHuman scrolls down in two steps and back to the top with
// randomized pauses. Failures are logged and ignored.
func SimulateHuman(ctx context.Context, page Page, sl Sleeper) {
	steps := []struct {
		name   string
		scroll func() error
		lo, hi time.Duration
	}{
		{"scroll 300", func() error { return page.ScrollBy(ctx, 300) }, 500 * time.Millisecond, 1500 * time.Millisecond},
		{"scroll 500", func() error { return page.ScrollBy(ctx, 500) }, 500 * time.Millisecond, 1500 * time.Millisecond},
		{"scroll top", func() error { return page.ScrollTo(ctx, 0) }, 1000 * time.Millisecond, 2000 * time.Millisecond},
	}
	for _, s := range steps {
		if err := s.scroll(); err != nil {
			slog.Debug("human simulation step failed", "step", s.name, "error", err)
		}
		if err := sl.Between(ctx, s.lo, s.hi); err != nil {
			return
		}
	}
}
