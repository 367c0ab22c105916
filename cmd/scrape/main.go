// Command scrape captures a Forebet predictions page to an HTML file.
//
// Usage: scrape [sport] [output_file]
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/oddscout/cli"
	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/webhook"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	cli.InitLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)
	code := cli.RunCapture(ctx, cli.Deps{Config: cfg, Notifier: notifier}, os.Args[1:])

	// Let the outcome webhook go out before the process exits; retries still
	// pending when the window closes are logged and dropped.
	waitCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	notifier.Wait(waitCtx)

	slog.Info("done", "exit", code)
	return code
}
