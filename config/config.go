package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Pool      PoolConfig
	Fetch     FetchConfig
	Interact  InteractConfig
	Segment   SegmentConfig
	Robots    RobotsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// BlockedResourceTypes lists resource types the renderer refuses to load.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// PoolConfig controls the browser page pool.
type PoolConfig struct {
	// MaxPages is the pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// MaxUses retires a page after this many checkouts.
	MaxUses int // default: 40

	// MaxAge retires a page after this lifetime.
	MaxAge time.Duration // default: 30m

	// MaxErrScore retires a page once its error score reaches this value.
	MaxErrScore int // default: 3
}

// FetchConfig controls fetching and rendering.
type FetchConfig struct {
	// StaticTimeout is the deadline for the plain HTTP attempt.
	StaticTimeout time.Duration // default: 10s

	// RequestBudget is the soft deadline for one whole scrape.
	RequestBudget time.Duration // default: 60s

	// NetworkIdleTimeout caps the wait for the rendered page to go quiet.
	NetworkIdleTimeout time.Duration // default: 5s

	// LandmarkTimeout caps the poll for a main/article landmark to appear.
	LandmarkTimeout time.Duration // default: 2s

	// SettleDelay is the fixed pause after the idle wait.
	SettleDelay time.Duration // default: 1s

	// MaxBodyBytes caps the static response body size.
	MaxBodyBytes int64 // default: 10MB
}

// InteractConfig controls the interaction phases on rendered pages.
type InteractConfig struct {
	// MaxDepth bounds clicks, scrolls and followed pages per phase.
	MaxDepth int // default: 3

	// ActionTimeout bounds every individual page action.
	ActionTimeout time.Duration // default: 5s
}

// SegmentConfig controls segmentation and noise filtering.
type SegmentConfig struct {
	// NoiseSelectors are CSS selectors stripped from every document
	// before segmentation, in addition to script/style/noscript.
	NoiseSelectors []string
}

// RobotsConfig controls robots.txt handling.
type RobotsConfig struct {
	// Respect toggles the robots.txt check before fetching.
	Respect bool // default: true

	// Timeout is the deadline for fetching robots.txt.
	Timeout time.Duration // default: 5s

	// UserAgent is the product token matched against robots.txt rules.
	UserAgent string // default: "pagesift"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// TTL is how long a cached result stays fresh. 0 disables caching.
	TTL time.Duration // default: 5m

	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"

	// File enables rotated log output to the given path in addition
	// to stdout. Empty disables file logging.
	File       string
	MaxSizeMB  int // default: 100
	MaxBackups int // default: 3
	MaxAgeDays int // default: 7
}

// DefaultNoiseSelectors are stripped from every document before
// segmentation: cookie walls, consent dialogs, popups, overlays, ads.
var DefaultNoiseSelectors = []string{
	"[role='dialog']",
	"[class*='cookie']",
	"[id*='cookie']",
	"[class*='gdpr']",
	"[class*='consent']",
	"[class*='popup']",
	"[class*='modal']",
	"[class*='overlay']",
	"[class*='banner']",
	".advertisement",
	".ad-container",
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PAGESIFT_HOST", "0.0.0.0"),
			Port: envIntOr("PAGESIFT_PORT", 8080),
			Mode: envOr("PAGESIFT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("PAGESIFT_HEADLESS", true),
			NoSandbox:    envBoolOr("PAGESIFT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("PAGESIFT_BROWSER_BIN"),
			DefaultProxy: os.Getenv("PAGESIFT_PROXY"),
			BlockedResourceTypes: envSliceOr("PAGESIFT_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Pool: PoolConfig{
			MaxPages:    envIntOr("PAGESIFT_MAX_PAGES", 10),
			MaxUses:     envIntOr("PAGESIFT_PAGE_MAX_USES", 40),
			MaxAge:      envDurationOr("PAGESIFT_PAGE_MAX_AGE", 30*time.Minute),
			MaxErrScore: envIntOr("PAGESIFT_PAGE_MAX_ERRSCORE", 3),
		},
		Fetch: FetchConfig{
			StaticTimeout:      envDurationOr("PAGESIFT_STATIC_TIMEOUT", 10*time.Second),
			RequestBudget:      envDurationOr("PAGESIFT_REQUEST_BUDGET", 60*time.Second),
			NetworkIdleTimeout: envDurationOr("PAGESIFT_IDLE_TIMEOUT", 5*time.Second),
			LandmarkTimeout:    envDurationOr("PAGESIFT_LANDMARK_TIMEOUT", 2*time.Second),
			SettleDelay:        envDurationOr("PAGESIFT_SETTLE_DELAY", time.Second),
			MaxBodyBytes:       int64(envIntOr("PAGESIFT_MAX_BODY_BYTES", 10*1024*1024)),
		},
		Interact: InteractConfig{
			MaxDepth:      envIntOr("PAGESIFT_MAX_DEPTH", 3),
			ActionTimeout: envDurationOr("PAGESIFT_ACTION_TIMEOUT", 5*time.Second),
		},
		Segment: SegmentConfig{
			NoiseSelectors: envSliceOr("PAGESIFT_NOISE_SELECTORS", DefaultNoiseSelectors),
		},
		Robots: RobotsConfig{
			Respect:   envBoolOr("PAGESIFT_RESPECT_ROBOTS", true),
			Timeout:   envDurationOr("PAGESIFT_ROBOTS_TIMEOUT", 5*time.Second),
			UserAgent: envOr("PAGESIFT_USER_AGENT", "pagesift"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PAGESIFT_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PAGESIFT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PAGESIFT_RATE_RPS", 5.0),
			Burst:             envIntOr("PAGESIFT_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			TTL:        envDurationOr("PAGESIFT_CACHE_TTL", 5*time.Minute),
			MaxEntries: envIntOr("PAGESIFT_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:      envOr("PAGESIFT_LOG_LEVEL", "info"),
			Format:     envOr("PAGESIFT_LOG_FORMAT", "json"),
			File:       os.Getenv("PAGESIFT_LOG_FILE"),
			MaxSizeMB:  envIntOr("PAGESIFT_LOG_MAX_SIZE_MB", 100),
			MaxBackups: envIntOr("PAGESIFT_LOG_MAX_BACKUPS", 3),
			MaxAgeDays: envIntOr("PAGESIFT_LOG_MAX_AGE_DAYS", 7),
		},
	}
}

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
