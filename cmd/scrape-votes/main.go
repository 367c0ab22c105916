// Command scrape-votes prints the fan vote of a match page as one JSON line.
//
// Usage: scrape-votes <match_url>
package main

import (
	"context"
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
	code := cli.RunVotes(ctx, cli.Deps{Config: cfg, Stdout: os.Stdout, Notifier: notifier}, os.Args[1:])

	waitCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	notifier.Wait(waitCtx)
	return code
}
