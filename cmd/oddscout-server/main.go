package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/oddscout/api"
	"github.com/use-agent/oddscout/api/handler"
	"github.com/use-agent/oddscout/cleaner"
	"github.com/use-agent/oddscout/cli"
	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/logos"
	"github.com/use-agent/oddscout/scraper"
	"github.com/use-agent/oddscout/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	cli.InitLogger(cfg.Log, os.Stdout)
	slog.Info("oddscout starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxSessions", cfg.Server.MaxSessions,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Services ─────────────────────────────────────────────────
	nav := scraper.NewNavigator(scraper.ProfileFromConfig(cfg.Browser, cfg.Scraper), nil)
	sessions := handler.NewSessions(nav, cfg.Scraper, nil, int64(cfg.Server.MaxSessions))

	cl, err := cleaner.New(cleaner.DefaultScope)
	if err != nil {
		slog.Error("failed to initialise cleaner", "error", err)
		os.Exit(1)
	}
	notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)

	// ── 4. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(ctx, api.Deps{
		Config:   cfg,
		Sessions: sessions,
		Cleaner:  cl,
		Logos:    logos.New(cfg.Logos, nil),
		Notifier: notifier,
		Started:  time.Now(),
	})

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	<-ctx.Done()
	slog.Info("shutdown signal received")

	// A capture in flight can take minutes; give it a bounded drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	notifier.Wait(shutdownCtx)
	slog.Info("oddscout stopped")
}
