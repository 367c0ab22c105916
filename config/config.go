package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Logos     LogoConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// BrowserConfig controls the Rod browser instance and the evasion profile
// applied to every session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker / CI).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL handed to the launcher.
	DefaultProxy string

	// Stealth injects the go-rod/stealth evasion script before navigation.
	Stealth bool // default: true

	// UserAgent is the spoofed desktop user agent.
	UserAgent string

	// WindowWidth and WindowHeight size both the OS window and the viewport.
	WindowWidth  int // default: 1920
	WindowHeight int // default: 1080

	// AcceptLanguage and Accept are sent as extra HTTP headers.
	AcceptLanguage string
	Accept         string

	// BlockAds blocks requests to well-known ad/tracking domains.
	BlockAds bool // default: false
}

// ScraperConfig controls the pipeline's waits and bounds.
type ScraperConfig struct {
	// NavigationTimeout bounds navigation plus the network-idle wait.
	NavigationTimeout time.Duration // default: 60s

	// ChallengeWait is the pause after navigation before anything else runs.
	ChallengeWait time.Duration // default: 5s

	// RecoveryWait is the extended wait when a challenge is still showing.
	RecoveryWait time.Duration // default: 30s

	// ContentWaitTimeout bounds each content-selector wait.
	ContentWaitTimeout time.Duration // default: 10s

	// ContentExtraWait is the additional pause when no content selector appears.
	ContentExtraWait time.Duration // default: 10s

	// MaxLoadMore bounds the progressive loader's iterations.
	MaxLoadMore int // default: 10

	// LoadMoreSettle is the wait after each successful load-more activation.
	LoadMoreSettle time.Duration // default: 2s

	// ScrollSettle is the wait after scrolling to the bottom.
	ScrollSettle time.Duration // default: 1.5s

	// ConsentSettle is the wait after a consent click.
	ConsentSettle time.Duration // default: 2s

	// VotesSettle is the wait after navigation in vote mode.
	VotesSettle time.Duration // default: 3s

	// DefaultOutput is the capture file used when none is given.
	DefaultOutput string // default: "forebet_output.html"

	// DebugFile receives the raw HTML of an unresolved challenge.
	DebugFile string // default: "forebet_challenge_debug.html"
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// CaptureDir is where API-triggered captures are written.
	CaptureDir string // default: os.TempDir()

	// MaxSessions bounds concurrent browser sessions; extra requests get 503.
	MaxSessions int // default: 1
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// LogoConfig controls team-logo lookups.
type LogoConfig struct {
	// BaseURL is the TheSportsDB API root.
	BaseURL string // default: "https://www.thesportsdb.com/api/v1/json/3"

	// CachePath is the JSON file backing the logo cache.
	CachePath string // default: "team_logos.json"

	// TTL is how long a cached lookup stays fresh.
	TTL time.Duration // default: 168h

	// NegativeTTL is how long a failed lookup is remembered.
	NegativeTTL time.Duration // default: 1h

	// MaxEntries caps the cache; reaching it evicts the oldest half.
	MaxEntries int // default: 2000

	// Timeout is the per-request deadline.
	Timeout time.Duration // default: 4s

	// RequestsPerSecond paces outbound lookups.
	RequestsPerSecond float64 // default: 2
}

// WebhookConfig controls outcome notifications.
type WebhookConfig struct {
	// URL receives event POSTs. Empty disables webhooks.
	URL string

	// Secret signs payloads with HMAC-SHA256 when set.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:       envBoolOr("ODDSCOUT_HEADLESS", true),
			NoSandbox:      envBoolOr("ODDSCOUT_NO_SANDBOX", true),
			BrowserBin:     os.Getenv("ODDSCOUT_BROWSER_BIN"),
			DefaultProxy:   os.Getenv("ODDSCOUT_PROXY"),
			Stealth:        envBoolOr("ODDSCOUT_STEALTH", true),
			UserAgent:      envOr("ODDSCOUT_USER_AGENT", DefaultUserAgent),
			WindowWidth:    envIntOr("ODDSCOUT_WINDOW_WIDTH", 1920),
			WindowHeight:   envIntOr("ODDSCOUT_WINDOW_HEIGHT", 1080),
			AcceptLanguage: envOr("ODDSCOUT_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			Accept:         envOr("ODDSCOUT_ACCEPT", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"),
			BlockAds:       envBoolOr("ODDSCOUT_BLOCK_ADS", false),
		},
		Scraper: ScraperConfig{
			NavigationTimeout:  envDurationOr("ODDSCOUT_NAV_TIMEOUT", 60*time.Second),
			ChallengeWait:      envDurationOr("ODDSCOUT_CHALLENGE_WAIT", 5*time.Second),
			RecoveryWait:       envDurationOr("ODDSCOUT_RECOVERY_WAIT", 30*time.Second),
			ContentWaitTimeout: envDurationOr("ODDSCOUT_CONTENT_WAIT", 10*time.Second),
			ContentExtraWait:   envDurationOr("ODDSCOUT_CONTENT_EXTRA_WAIT", 10*time.Second),
			MaxLoadMore:        envIntOr("ODDSCOUT_MAX_LOAD_MORE", 10),
			LoadMoreSettle:     envDurationOr("ODDSCOUT_LOAD_MORE_SETTLE", 2*time.Second),
			ScrollSettle:       envDurationOr("ODDSCOUT_SCROLL_SETTLE", 1500*time.Millisecond),
			ConsentSettle:      envDurationOr("ODDSCOUT_CONSENT_SETTLE", 2*time.Second),
			VotesSettle:        envDurationOr("ODDSCOUT_VOTES_SETTLE", 3*time.Second),
			DefaultOutput:      envOr("ODDSCOUT_DEFAULT_OUTPUT", "forebet_output.html"),
			DebugFile:          envOr("ODDSCOUT_DEBUG_FILE", "forebet_challenge_debug.html"),
		},
		Server: ServerConfig{
			Host:        envOr("ODDSCOUT_HOST", "0.0.0.0"),
			Port:        envIntOr("ODDSCOUT_PORT", 8080),
			Mode:        envOr("ODDSCOUT_MODE", "release"),
			CaptureDir:  envOr("ODDSCOUT_CAPTURE_DIR", os.TempDir()),
			MaxSessions: envIntOr("ODDSCOUT_MAX_SESSIONS", 1),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("ODDSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("ODDSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("ODDSCOUT_RATE_RPS", 1.0),
			Burst:             envIntOr("ODDSCOUT_RATE_BURST", 3),
		},
		Logos: LogoConfig{
			BaseURL:           envOr("ODDSCOUT_LOGOS_BASE_URL", "https://www.thesportsdb.com/api/v1/json/3"),
			CachePath:         envOr("ODDSCOUT_LOGOS_CACHE", "team_logos.json"),
			TTL:               envDurationOr("ODDSCOUT_LOGOS_TTL", 7*24*time.Hour),
			NegativeTTL:       envDurationOr("ODDSCOUT_LOGOS_NEGATIVE_TTL", time.Hour),
			MaxEntries:        envIntOr("ODDSCOUT_LOGOS_MAX_ENTRIES", 2000),
			Timeout:           envDurationOr("ODDSCOUT_LOGOS_TIMEOUT", 4*time.Second),
			RequestsPerSecond: envFloatOr("ODDSCOUT_LOGOS_RPS", 2.0),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("ODDSCOUT_WEBHOOK_URL"),
			Secret: os.Getenv("ODDSCOUT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("ODDSCOUT_LOG_LEVEL", "info"),
			Format: envOr("ODDSCOUT_LOG_FORMAT", "text"),
		},
	}
}

// DefaultUserAgent is a current desktop Chrome on Windows.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
