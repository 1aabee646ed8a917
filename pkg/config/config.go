// Package config centralizes runtime configuration for the gateway and the
// optional scoring layers. Defaults work out of the box; every knob can be
// overridden through environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all tunable settings.
type Config struct {
	// ListenAddr is the gateway bind address.
	ListenAddr string

	// ConfigDir is where brands.yaml and weights.yaml are looked up.
	// Empty means built-in defaults only.
	ConfigDir string

	// FeedbackLimit caps feedback reports per session.
	FeedbackLimit int

	// MaxConcurrentScans bounds in-flight analyze requests at the gateway.
	MaxConcurrentScans int

	// RedisAddr enables the verdict cache when non-empty.
	RedisAddr string

	// CacheTTL is how long cached verdicts stay valid.
	CacheTTL time.Duration

	// DatabaseURL enables assessment history persistence when non-empty.
	DatabaseURL string

	// EnableSimilarity turns on the exemplar similarity ensemble layer.
	EnableSimilarity bool

	// EnableOnnx turns on the ONNX classifier ensemble layer when a model
	// is available.
	EnableOnnx bool

	// AllowlistHosts are hosts the gateway short-circuits to SAFE before
	// the engine runs. The engine itself never consults this list.
	AllowlistHosts []string
}

// NewDefaultConfig returns the defaults overlaid with environment overrides.
func NewDefaultConfig() *Config {
	return &Config{
		ListenAddr:         GetEnv("LINKSHIELD_LISTEN_ADDR", ":8089"),
		ConfigDir:          GetEnv("LINKSHIELD_CONFIG_DIR", ""),
		FeedbackLimit:      GetEnvInt("LINKSHIELD_FEEDBACK_LIMIT", 10),
		MaxConcurrentScans: GetEnvInt("LINKSHIELD_MAX_CONCURRENT_SCANS", 256),
		RedisAddr:          GetEnv("LINKSHIELD_REDIS_ADDR", ""),
		CacheTTL:           GetEnvDuration("LINKSHIELD_CACHE_TTL", 15*time.Minute),
		DatabaseURL:        GetEnv("LINKSHIELD_DATABASE_URL", ""),
		EnableSimilarity:   GetEnvBool("LINKSHIELD_ENABLE_SIMILARITY", false),
		EnableOnnx:         GetEnvBool("LINKSHIELD_ENABLE_ONNX", false),
		AllowlistHosts:     GetEnvSlice("LINKSHIELD_ALLOWLIST", nil),
	}
}

// Validate checks the configuration for nonsensical values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.FeedbackLimit <= 0 {
		return fmt.Errorf("feedback limit must be positive, got %d", c.FeedbackLimit)
	}
	if c.MaxConcurrentScans <= 0 {
		return fmt.Errorf("max concurrent scans must be positive, got %d", c.MaxConcurrentScans)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got %s", c.CacheTTL)
	}
	return nil
}

// MustValidate panics on invalid configuration. Use at startup only.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}
}

// GetEnv returns the environment value or fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvBool parses a boolean environment value ("true", "1", "yes" are
// true), returning fallback when unset or unparseable.
func GetEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return fallback
	}
}

// GetEnvInt parses an integer environment value, returning fallback when
// unset or unparseable.
func GetEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvFloat parses a float environment value, returning fallback when
// unset or unparseable.
func GetEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvDuration parses a duration environment value ("15m", "1h"),
// returning fallback when unset or unparseable.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// GetEnvSlice splits a comma-separated environment value, trimming spaces
// and dropping empties. Unset returns fallback.
func GetEnvSlice(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
