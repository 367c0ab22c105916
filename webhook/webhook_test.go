package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeliver_Signs(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	ev := NewEvent(VotesCompleted, map[string]any{"success": true})
	if err := Deliver(context.Background(), srv.Client(), srv.URL, "s3cret", ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if want := "sha256=" + Sign("s3cret", gotBody); gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}
	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != VotesCompleted || decoded.ID == "" || decoded.Timestamp == 0 {
		t.Errorf("event = %+v", decoded)
	}
}

func TestDeliver_NoSecretNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(SignatureHeader) != "" {
			t.Error("unexpected signature header")
		}
	}))
	defer srv.Close()

	if err := Deliver(context.Background(), srv.Client(), srv.URL, "", NewEvent(CaptureCompleted, nil)); err != nil {
		t.Fatal(err)
	}
}

func TestNotifier_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "")
	n.Delays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}
	n.Notify(NewEvent(CaptureFailed, map[string]string{"code": "CHALLENGE_UNRESOLVED"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n.Wait(ctx)

	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestNotifier_NilIsNoop(t *testing.T) {
	n := NewNotifier("", "")
	if n != nil {
		t.Fatal("empty URL should disable notifications")
	}
	n.Notify(NewEvent(CaptureCompleted, nil))
	n.Wait(context.Background())
}

func TestNotifier_WaitAbandonsPendingRetries(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	var logs bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "")
	n.Delays = []time.Duration{0, time.Hour}
	ev := NewEvent(CaptureCompleted, nil)
	n.Notify(ev)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	n.Wait(ctx)

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Wait took %v, want it to stop at the drain deadline", elapsed)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	out := logs.String()
	if !strings.Contains(out, "webhook delivery abandoned at shutdown") || !strings.Contains(out, ev.ID) {
		t.Errorf("abandoned event not logged: %s", out)
	}
}
