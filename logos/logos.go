// Package logos resolves team badge URLs through TheSportsDB, backed by a
// persistent TTL cache.
package logos

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"

	"golang.org/x/time/rate"

	"github.com/use-agent/oddscout/cache"
	"github.com/use-agent/oddscout/config"
	"github.com/use-agent/oddscout/fetch"
)

// Logo is one lookup answer. URL is nil when no badge is known; Initials and
// Color are always set so callers can draw a placeholder.
type Logo struct {
	Team     string  `json:"team"`
	URL      *string `json:"url"`
	Initials string  `json:"initials"`
	Color    string  `json:"color"`
	Cached   bool    `json:"cached"`
}

type searchResponse struct {
	Teams []struct {
		StrBadge string `json:"strBadge"`
		StrLogo  string `json:"strLogo"`
	} `json:"teams"`
}

// Service looks up and caches team logos.
type Service struct {
	client  *fetch.Client
	cache   *cache.Cache
	limiter *rate.Limiter
	baseURL string
	negTTL  time.Duration
}

// New builds a Service from cfg. A nil client gets one with cfg.Timeout.
func New(cfg config.LogoConfig, client *fetch.Client) *Service {
	if client == nil {
		client = fetch.NewClient(cfg.Timeout, config.DefaultUserAgent)
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Service{
		client:  client,
		cache:   cache.New(cfg.CachePath, cfg.TTL, cfg.MaxEntries),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		negTTL:  cfg.NegativeTTL,
	}
}

// Lookup returns the logo for team. Upstream failures are not errors: they
// are remembered for the negative TTL and reported as a nil URL. The only
// error is ctx ending while waiting for the outbound rate limit.
func (s *Service) Lookup(ctx context.Context, team string) (Logo, error) {
	team = strings.TrimSpace(team)
	out := Logo{Team: team, Initials: Initials(team), Color: Color(team)}
	if team == "" {
		return out, nil
	}

	key := cache.Key(team)
	if u, ok := s.cache.Get(key); ok {
		out.URL = u
		out.Cached = true
		return out, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return out, fmt.Errorf("logos: wait for rate limit: %w", err)
	}

	u, err := s.search(ctx, team)
	if err != nil {
		slog.Warn("logo lookup failed", "team", team, "error", err)
		s.cache.SetFor(key, nil, s.negTTL)
	} else {
		s.cache.Set(key, u)
		out.URL = u
	}
	if err := s.cache.Save(); err != nil {
		slog.Warn("logo cache save failed", "error", err)
	}
	return out, nil
}

func (s *Service) search(ctx context.Context, team string) (*string, error) {
	q := url.Values{"t": {team}}
	endpoint := s.baseURL + "/searchteams.php?" + q.Encode()

	var resp searchResponse
	if err := s.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Teams) == 0 {
		return nil, nil
	}
	t := resp.Teams[0]
	switch {
	case t.StrBadge != "":
		return &t.StrBadge, nil
	case t.StrLogo != "":
		return &t.StrLogo, nil
	}
	return nil, nil
}

// Initials returns up to two uppercase letters for a placeholder badge: the
// first two letters of a one-word name, otherwise the first letter of each of
// the first two words.
func Initials(name string) string {
	words := strings.Fields(name)
	switch len(words) {
	case 0:
		return "??"
	case 1:
		r := []rune(words[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	}
	a := []rune(words[0])[0]
	b := []rune(words[1])[0]
	return string([]rune{unicode.ToUpper(a), unicode.ToUpper(b)})
}

// Color returns a stable HSL placeholder color derived from name.
func Color(name string) string {
	var h int64
	for _, c := range utf16.Encode([]rune(name)) {
		h = int64(c) + int64(int32(uint32(h))<<5) - h
	}
	if h < 0 {
		h = -h
	}
	return fmt.Sprintf("hsl(%d, 55%%, 45%%)", h%360)
}
