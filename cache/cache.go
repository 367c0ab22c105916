package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is one cached lookup. A nil URL records "looked up, nothing found".
type Entry struct {
	URL *string `json:"url"`
	TS  int64   `json:"ts"` // unix milliseconds
}

// Cache is a TTL cache persisted as one JSON object. It is safe for
// concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]Entry
	path       string
	ttl        time.Duration
	maxEntries int

	now func() time.Time
}

// New creates a Cache backed by path, loading whatever the file holds. An
// empty path keeps the cache in memory only. A missing or corrupt file
// starts empty.
func New(path string, ttl time.Duration, maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]Entry),
		path:       path,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = json.Unmarshal(data, &c.store)
		}
	}
	return c
}

// SetClock replaces the time source used for stamping and expiry.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Key normalises a lookup name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the cached URL for key if the entry is younger than the TTL.
func (c *Cache) Get(key string) (*string, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	now := c.now()
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if now.Sub(time.UnixMilli(e.TS)) >= c.ttl {
		return nil, false
	}
	return e.URL, true
}

// Set stores url under key, stamped now.
func (c *Cache) Set(key string, url *string) {
	c.SetFor(key, url, c.ttl)
}

// SetFor stores url under key so that it stays fresh for d. Entries are
// stamped backwards so a single TTL governs every lookup.
func (c *Cache) SetFor(key string, url *string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.now().Add(d - c.ttl)
	c.store[key] = Entry{URL: url, TS: ts.UnixMilli()}
	if c.maxEntries > 0 && len(c.store) > c.maxEntries {
		c.evictOldestHalf()
	}
}

// evictOldestHalf drops the older half of the entries. Callers hold mu.
func (c *Cache) evictOldestHalf() {
	keys := make([]string, 0, len(c.store))
	for k := range c.store {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.store[keys[i]].TS < c.store[keys[j]].TS
	})
	for _, k := range keys[:len(keys)/2] {
		delete(c.store, k)
	}
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Save writes the cache to its file through a temporary file and rename.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}
	c.mu.RLock()
	data, err := json.Marshal(c.store)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("cache: create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: rename: %w", err)
	}
	return nil
}
