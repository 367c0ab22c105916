package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oddscout/cleaner"
	"github.com/use-agent/oddscout/emit"
	"github.com/use-agent/oddscout/models"
	"github.com/use-agent/oddscout/scraper"
	"github.com/use-agent/oddscout/webhook"
)

// Capture returns a handler for POST /api/v1/capture.
//
// Flow:
//  1. Parse request, apply defaults.
//  2. Reserve a browser session or answer 503 BUSY.
//  3. Capturer.Capture → raw HTML       (records capture_ms)
//  4. Write the raw capture under dir.
//  5. Cleaner.Render → requested format (records render_ms)
func Capture(s *Sessions, cl *cleaner.Cleaner, dir string, n *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.CaptureRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, err.Error())
			return
		}
		req.Defaults()
		sport := fileSport(req.Sport)

		// ── 2. Session slot ─────────────────────────────────────────
		if !s.tryAcquire() {
			busy(c)
			return
		}
		defer s.release()

		// ── 3. Capture ──────────────────────────────────────────────
		captureStart := time.Now()
		res, err := s.capturer().Capture(c.Request.Context(), req.Sport)
		captureMs := time.Since(captureStart).Milliseconds()
		if err != nil {
			se := models.AsScrapeError(err)
			if se.Code == models.ErrCodeChallenge && res != nil {
				debug := filepath.Join(dir, fmt.Sprintf("forebet_%s_challenge_debug.html", sport))
				if werr := emit.WriteDebug(debug, res.HTML); werr != nil {
					slog.Error("failed to write debug HTML", "path", debug, "error", werr)
				}
			}
			n.Notify(webhook.NewEvent(webhook.CaptureFailed, map[string]string{
				"sport": req.Sport, "code": se.Code, "message": se.Message,
			}))
			respondError(c, se)
			return
		}

		// ── 4. Persist ──────────────────────────────────────────────
		path := filepath.Join(dir, fmt.Sprintf("forebet_%s_%s.html", sport, time.Now().UTC().Format("20060102T150405Z")))
		nbytes, err := emit.WriteHTML(path, res.HTML)
		if err != nil {
			respondError(c, err)
			return
		}
		res.OutputPath = path
		res.ByteLength = nbytes
		n.Notify(webhook.NewEvent(webhook.CaptureCompleted, res))

		// ── 5. Render ───────────────────────────────────────────────
		renderStart := time.Now()
		content, tokens, err := cl.Render(res.HTML, res.URL, req.OutputFormat)
		if err != nil {
			respondError(c, err)
			return
		}
		if !*req.IncludeContent {
			content = ""
		}

		c.JSON(http.StatusOK, models.CaptureResponse{
			Success:              true,
			Sport:                req.Sport,
			URL:                  res.URL,
			Format:               req.OutputFormat,
			Content:              content,
			OutputPath:           path,
			ByteLength:           nbytes,
			PagesLoaded:          res.PagesLoaded,
			ChallengeEncountered: res.ChallengeEncountered,
			Tokens:               tokens,
			Timing: models.TimingInfo{
				TotalMs:   time.Since(totalStart).Milliseconds(),
				CaptureMs: captureMs,
				RenderMs:  time.Since(renderStart).Milliseconds(),
			},
		})
	}
}

// fileSport returns a sport name safe to embed in a file name. Unknown
// sports are captured from the football page, so they are named after it.
func fileSport(sport string) string {
	s := strings.ToLower(strings.TrimSpace(sport))
	if slices.Contains(scraper.Sports(), s) {
		return s
	}
	return "football"
}
