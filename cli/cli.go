// Package cli implements the scrape and scrape-votes command lines on top of
// the scraper pipelines.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/emit"
	"github.com/use-agent/oddscout/models"
	"github.com/use-agent/oddscout/scraper"
	"github.com/use-agent/oddscout/webhook"
)

// Deps are the collaborators of one command invocation.
type Deps struct {
	Config *config.Config

	// Launch starts the browser; nil uses scraper.LaunchRod.
	Launch scraper.LaunchFunc

	// Sleeper performs every pipeline wait; nil sleeps for real.
	Sleeper scraper.Sleeper

	// Stdout receives the vote-mode JSON line.
	Stdout io.Writer

	// Notifier receives outcome events; nil disables webhooks.
	Notifier *webhook.Notifier
}

func (d Deps) navigator() *scraper.Navigator {
	return scraper.NewNavigator(scraper.ProfileFromConfig(d.Config.Browser, d.Config.Scraper), d.Launch)
}

func (d Deps) stdout() io.Writer {
	if d.Stdout == nil {
		return os.Stdout
	}
	return d.Stdout
}

// InitLogger configures slog based on the LogConfig. Command-line tools
// pass stderr so stdout stays reserved for results.
func InitLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// RunCapture runs capture mode with args [sport [output_file]] and returns
// the process exit code.
func RunCapture(ctx context.Context, d Deps, args []string) (code int) {
	cfg := d.Config.Scraper
	sport := "football"
	if len(args) > 0 && args[0] != "" {
		sport = args[0]
	}
	output := cfg.DefaultOutput
	if len(args) > 1 && args[1] != "" {
		output = args[1]
	}
	slog.Info("forebet capture", "sport", sport, "output", output)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("capture crashed", "panic", fmt.Sprint(r))
			d.Notifier.Notify(webhook.NewEvent(webhook.CaptureFailed, failure(sport, models.ErrCodeInternal, fmt.Sprint(r))))
			code = 1
		}
	}()

	res, err := scraper.NewCapturer(d.navigator(), cfg, d.Sleeper).Capture(ctx, sport)
	if err != nil {
		se := models.AsScrapeError(err)
		if se.Code == models.ErrCodeChallenge && res != nil {
			if werr := emit.WriteDebug(cfg.DebugFile, res.HTML); werr != nil {
				slog.Error("failed to write debug HTML", "path", cfg.DebugFile, "error", werr)
			} else {
				slog.Error("challenge unresolved, saved debug HTML", "path", cfg.DebugFile)
			}
		} else {
			slog.Error("capture failed", "code", se.Code, "error", err)
		}
		d.Notifier.Notify(webhook.NewEvent(webhook.CaptureFailed, failure(sport, se.Code, se.Message)))
		return 1
	}

	n, err := emit.WriteHTML(output, res.HTML)
	if err != nil {
		slog.Error("failed to save capture", "path", output, "error", err)
		d.Notifier.Notify(webhook.NewEvent(webhook.CaptureFailed, failure(sport, models.ErrCodeOutput, err.Error())))
		return 1
	}
	res.OutputPath = output
	res.ByteLength = n

	slog.Info("capture saved",
		"path", output,
		"bytes", n,
		"pages", res.PagesLoaded,
		"challenge", res.ChallengeEncountered,
	)
	d.Notifier.Notify(webhook.NewEvent(webhook.CaptureCompleted, res))
	return 0
}

// RunVotes runs vote mode with args [match_url]. It prints exactly one JSON
// line and exits non-zero only when the URL is missing or stdout fails.
func RunVotes(ctx context.Context, d Deps, args []string) (code int) {
	out := d.stdout()
	if len(args) == 0 || args[0] == "" {
		_ = emit.WriteJSONLine(out, models.UsageError{
			Success: false,
			Error:   "Usage: scrape-votes <match_url>",
		})
		return 1
	}
	url := args[0]

	defer func() {
		if r := recover(); r != nil {
			slog.Error("vote extraction crashed", "panic", fmt.Sprint(r))
			res := models.NewFanVoteResult(url)
			res.Fail(fmt.Sprint(r))
			code = writeVotes(out, res)
		}
	}()

	res, err := scraper.NewVoteReader(d.navigator(), d.Config.Scraper, d.Sleeper).FanVotes(ctx, url)
	if err != nil {
		slog.Error("vote pipeline failed", "url", url, "error", err)
	}
	d.Notifier.Notify(webhook.NewEvent(webhook.VotesCompleted, res))
	return writeVotes(out, res)
}

func writeVotes(w io.Writer, res *models.FanVoteResult) int {
	if err := emit.WriteJSONLine(w, res); err != nil {
		slog.Error("failed to write result", "error", err)
		return 1
	}
	return 0
}

type captureFailure struct {
	Sport   string `json:"sport"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func failure(sport, code, msg string) captureFailure {
	return captureFailure{Sport: sport, Code: code, Message: msg}
}
