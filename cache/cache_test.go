package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func strp(s string) *string { return &s }

func TestCache_TTL(t *testing.T) {
	c := New("", 7*24*time.Hour, 0)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("arsenal", strp("https://img/arsenal.png"))
	c.Set("nowhere fc", nil)

	if u, ok := c.Get("arsenal"); !ok || *u != "https://img/arsenal.png" {
		t.Errorf("Get(arsenal) = %v, %v", u, ok)
	}
	if u, ok := c.Get("nowhere fc"); !ok || u != nil {
		t.Errorf("negative entry should be a cached nil, got %v, %v", u, ok)
	}

	now = now.Add(7*24*time.Hour - time.Minute)
	if _, ok := c.Get("arsenal"); !ok {
		t.Error("entry should still be fresh just before the TTL")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("arsenal"); ok {
		t.Error("entry should expire after the TTL")
	}
}

func TestCache_SetForShortLived(t *testing.T) {
	c := New("", 7*24*time.Hour, 0)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.SetFor("flaky", nil, time.Hour)

	now = now.Add(59 * time.Minute)
	if _, ok := c.Get("flaky"); !ok {
		t.Error("short-lived entry should be fresh within its window")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("flaky"); ok {
		t.Error("short-lived entry should expire after its window")
	}
}

func TestCache_EvictsOldestHalf(t *testing.T) {
	c := New("", time.Hour, 4)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, k := range []string{"a", "b", "c", "d", "e"} {
		ts := base.Add(time.Duration(i) * time.Second)
		c.now = func() time.Time { return ts }
		c.Set(k, strp(k))
	}

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	for _, k := range []string{"a", "b"} {
		if _, ok := c.store[k]; ok {
			t.Errorf("%q should have been evicted", k)
		}
	}
	for _, k := range []string{"c", "d", "e"} {
		if _, ok := c.store[k]; !ok {
			t.Errorf("%q should survive", k)
		}
	}
}

func TestCache_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team_logos.json")
	c := New(path, time.Hour, 0)
	c.Set(Key("  Lech Poznań "), strp("https://img/lech.png"))
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := New(path, time.Hour, 0)
	if u, ok := reloaded.Get("lech poznań"); !ok || *u != "https://img/lech.png" {
		t.Errorf("reloaded Get = %v, %v", u, ok)
	}
}

func TestNew_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if c := New(path, time.Hour, 0); c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}
