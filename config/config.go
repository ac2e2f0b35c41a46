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
	Capture   CaptureConfig
	Workspace WorkspaceConfig
	Shopify   ShopifyConfig
	LLM       LLMConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8090
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

	// Proxy is an optional proxy URL for all requests.
	Proxy string
}

// CaptureConfig controls page rendering and extraction behavior. The
// numeric caps bound cost on pathological pages; hitting a cap is a
// degradation, not an error.
type CaptureConfig struct {
	// ViewportWidth/ViewportHeight fix the render viewport.
	ViewportWidth  int // default: 1440
	ViewportHeight int // default: 900

	// NavTimeout bounds page.Navigate + initial load. On expiry the
	// pipeline proceeds best-effort with whatever rendered.
	NavTimeout time.Duration // default: 60s

	// MaxScrolls bounds the lazy-load auto-scroll loop.
	MaxScrolls int // default: 14

	// ScrollPause is the settle time between scroll steps.
	ScrollPause time.Duration // default: 380ms

	// MaxDigestNodes caps the extracted DOM digest.
	MaxDigestNodes int // default: 4500

	// MaxSections caps emitted sections per run.
	MaxSections int // default: 22

	// MaxNodesPerSection caps the digest subset attached to one section.
	MaxNodesPerSection int // default: 900

	// MinSectionHeight rejects decorative sliver candidates.
	MinSectionHeight int // default: 160

	// MinSectionWidthFrac rejects candidates narrower than this fraction
	// of the viewport width.
	MinSectionWidthFrac float64 // default: 0.55

	// MaxFingerprintSections / MaxFingerprintAssets bound the visual
	// fingerprinting loop.
	MaxFingerprintSections int // default: 12
	MaxFingerprintAssets   int // default: 24

	// IconMaxDim is the max dimension (px) below which an asset counts as
	// icon-sized for role resolution.
	IconMaxDim int // default: 96

	// LargeImageMinDim is the min dimension (px) above which an image
	// counts as "large" for classification.
	LargeImageMinDim int // default: 200
}

// WorkspaceConfig controls where run artifacts are written.
type WorkspaceConfig struct {
	// Dir is the workspace root. Crops go under <dir>/screenshots/latest.
	Dir string // default: "workspace"
}

// ShopifyConfig configures the admin API client. The client is an explicit
// object constructed from this config and passed by reference; there is no
// process-wide singleton.
type ShopifyConfig struct {
	Shop        string // e.g. "my-store" (myshopify subdomain)
	AccessToken string
	APIVersion  string  // default: "2024-01"
	RPS         float64 // default: 2
}

// LLMConfig configures the classify/generate capability client.
type LLMConfig struct {
	BaseURL string // default: "https://openrouter.ai/api/v1"
	APIKey  string
	Model   string        // default: "openai/gpt-4o-mini"
	Timeout time.Duration // default: 120s
	RPS     float64       // default: 1
}

// AuthConfig controls API-key authentication. An empty key list disables
// auth entirely (open access).
type AuthConfig struct {
	APIKeys []string // SHOPMORPH_API_KEYS, comma-separated
}

// RateLimitConfig controls per-identity request pacing on the API.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 1
	Burst             int     // default: 3
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SHOPMORPH_HOST", "0.0.0.0"),
			Port: envIntOr("SHOPMORPH_PORT", 8090),
			Mode: envOr("SHOPMORPH_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("SHOPMORPH_HEADLESS", true),
			NoSandbox:  envBoolOr("SHOPMORPH_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SHOPMORPH_BROWSER_BIN"),
			Proxy:      os.Getenv("SHOPMORPH_PROXY"),
		},
		Capture: CaptureConfig{
			ViewportWidth:          envIntOr("SHOPMORPH_VIEWPORT_W", 1440),
			ViewportHeight:         envIntOr("SHOPMORPH_VIEWPORT_H", 900),
			NavTimeout:             envDurationOr("SHOPMORPH_NAV_TIMEOUT", 60*time.Second),
			MaxScrolls:             envIntOr("SHOPMORPH_MAX_SCROLLS", 14),
			ScrollPause:            envDurationOr("SHOPMORPH_SCROLL_PAUSE", 380*time.Millisecond),
			MaxDigestNodes:         envIntOr("SHOPMORPH_MAX_DIGEST_NODES", 4500),
			MaxSections:            envIntOr("SHOPMORPH_MAX_SECTIONS", 22),
			MaxNodesPerSection:     envIntOr("SHOPMORPH_MAX_NODES_PER_SECTION", 900),
			MinSectionHeight:       envIntOr("SHOPMORPH_MIN_SECTION_HEIGHT", 160),
			MinSectionWidthFrac:    envFloatOr("SHOPMORPH_MIN_SECTION_WIDTH_FRAC", 0.55),
			MaxFingerprintSections: envIntOr("SHOPMORPH_MAX_FP_SECTIONS", 12),
			MaxFingerprintAssets:   envIntOr("SHOPMORPH_MAX_FP_ASSETS", 24),
			IconMaxDim:             envIntOr("SHOPMORPH_ICON_MAX_DIM", 96),
			LargeImageMinDim:       envIntOr("SHOPMORPH_LARGE_IMAGE_MIN_DIM", 200),
		},
		Workspace: WorkspaceConfig{
			Dir: envOr("SHOPMORPH_WORKSPACE", "workspace"),
		},
		Shopify: ShopifyConfig{
			Shop:        os.Getenv("SHOPMORPH_SHOP"),
			AccessToken: os.Getenv("SHOPMORPH_SHOPIFY_TOKEN"),
			APIVersion:  envOr("SHOPMORPH_SHOPIFY_API_VERSION", "2024-01"),
			RPS:         envFloatOr("SHOPMORPH_SHOPIFY_RPS", 2.0),
		},
		LLM: LLMConfig{
			BaseURL: envOr("SHOPMORPH_LLM_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:  os.Getenv("SHOPMORPH_LLM_API_KEY"),
			Model:   envOr("SHOPMORPH_LLM_MODEL", "openai/gpt-4o-mini"),
			Timeout: envDurationOr("SHOPMORPH_LLM_TIMEOUT", 120*time.Second),
			RPS:     envFloatOr("SHOPMORPH_LLM_RPS", 1.0),
		},
		Auth: AuthConfig{
			APIKeys: splitNonEmpty(os.Getenv("SHOPMORPH_API_KEYS")),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SHOPMORPH_RATE_RPS", 1.0),
			Burst:             envIntOr("SHOPMORPH_RATE_BURST", 3),
		},
		Log: LogConfig{
			Level:  envOr("SHOPMORPH_LOG_LEVEL", "info"),
			Format: envOr("SHOPMORPH_LOG_FORMAT", "json"),
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

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
