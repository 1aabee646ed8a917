package config

import (
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"zero feedback limit", func(c *Config) { c.FeedbackLimit = 0 }},
		{"zero scan limit", func(c *Config) { c.MaxConcurrentScans = 0 }},
		{"negative ttl", func(c *Config) { c.CacheTTL = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LINKSHIELD_LISTEN_ADDR", ":9000")
	t.Setenv("LINKSHIELD_FEEDBACK_LIMIT", "5")
	t.Setenv("LINKSHIELD_ENABLE_SIMILARITY", "true")
	t.Setenv("LINKSHIELD_CACHE_TTL", "1h")
	t.Setenv("LINKSHIELD_ALLOWLIST", "intranet.corp, wiki.corp ,")

	cfg := NewDefaultConfig()
	if cfg.ListenAddr != ":9000" {
		t.Errorf("expected :9000, got %s", cfg.ListenAddr)
	}
	if cfg.FeedbackLimit != 5 {
		t.Errorf("expected 5, got %d", cfg.FeedbackLimit)
	}
	if !cfg.EnableSimilarity {
		t.Error("expected similarity enabled")
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("expected 1h, got %s", cfg.CacheTTL)
	}
	if len(cfg.AllowlistHosts) != 2 || cfg.AllowlistHosts[0] != "intranet.corp" {
		t.Errorf("unexpected allowlist: %v", cfg.AllowlistHosts)
	}
}

func TestEnvHelpersFallbacks(t *testing.T) {
	t.Setenv("LINKSHIELD_TEST_BAD_INT", "abc")
	if GetEnvInt("LINKSHIELD_TEST_BAD_INT", 7) != 7 {
		t.Error("expected fallback for unparseable int")
	}
	t.Setenv("LINKSHIELD_TEST_BAD_BOOL", "maybe")
	if GetEnvBool("LINKSHIELD_TEST_BAD_BOOL", true) != true {
		t.Error("expected fallback for unparseable bool")
	}
	if GetEnvFloat("LINKSHIELD_TEST_UNSET", 0.5) != 0.5 {
		t.Error("expected fallback for unset float")
	}
	if GetEnvDuration("LINKSHIELD_TEST_UNSET", time.Minute) != time.Minute {
		t.Error("expected fallback for unset duration")
	}
}
