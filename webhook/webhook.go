package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event types.
const (
	CaptureCompleted = "capture.completed"
	CaptureFailed    = "capture.failed"
	VotesCompleted   = "votes.completed"
)

// SignatureHeader carries "sha256=<hex>" when a secret is configured.
const SignatureHeader = "X-Oddscout-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// NewEvent stamps data with a fresh id and the current time.
func NewEvent(typ string, data any) *Event {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return &Event{
		Type:      typ,
		ID:        hex.EncodeToString(b[:]),
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Oddscout-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DefaultRetryDelays are the waits before each delivery attempt.
var DefaultRetryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Notifier delivers events in the background with retries. A nil Notifier
// or one without a URL drops every event.
type Notifier struct {
	URL    string
	Secret string

	// Delays overrides DefaultRetryDelays.
	Delays []time.Duration

	Client *http.Client

	wg   sync.WaitGroup
	once sync.Once
	ctx  context.Context
	stop context.CancelFunc
}

// NewNotifier returns a Notifier for url, or nil when url is empty.
func NewNotifier(url, secret string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) init() {
	n.once.Do(func() {
		n.ctx, n.stop = context.WithCancel(context.Background())
	})
}

// Notify queues event for delivery.
func (n *Notifier) Notify(event *Event) {
	if n == nil || n.URL == "" {
		return
	}
	n.init()
	delays := n.Delays
	if delays == nil {
		delays = DefaultRetryDelays
	}
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for attempt, delay := range delays {
			if !n.sleep(delay) {
				n.abandon(event, attempt)
				return
			}
			ctx, cancel := context.WithTimeout(n.ctx, 10*time.Second)
			err := Deliver(ctx, client, n.URL, n.Secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", n.URL,
					"event", event.Type,
					"id", event.ID,
					"attempt", attempt+1,
				)
				return
			}
			if n.ctx.Err() != nil {
				n.abandon(event, attempt+1)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", n.URL,
				"event", event.Type,
				"id", event.ID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", n.URL,
			"event", event.Type,
			"id", event.ID,
		)
	}()
}

// sleep waits d and reports false if the notifier stopped first.
func (n *Notifier) sleep(d time.Duration) bool {
	if d <= 0 {
		return n.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-n.ctx.Done():
		return false
	}
}

func (n *Notifier) abandon(event *Event, attempts int) {
	slog.Error("webhook delivery abandoned at shutdown",
		"url", n.URL,
		"event", event.Type,
		"id", event.ID,
		"attempts", attempts,
	)
}

// Wait blocks until queued deliveries finish. When ctx ends first, pending
// retries are cancelled and each undelivered event is logged before Wait
// returns.
func (n *Notifier) Wait(ctx context.Context) {
	if n == nil {
		return
	}
	n.init()
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return
	case <-ctx.Done():
	}
	n.stop()
	<-done
}
