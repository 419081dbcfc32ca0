package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	src := `
rules:
  dir: /etc/warden/rules
  stop_on_first_match: false
  match_timeout: 250ms
messages:
  timed_delay: 20m
logging:
  format: json
`
	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Rules.Dir != "/etc/warden/rules" {
		t.Errorf("Rules.Dir = %q", cfg.Rules.Dir)
	}
	if cfg.Rules.StopOnFirstMatch {
		t.Error("StopOnFirstMatch = true, want overridden false")
	}
	if cfg.Rules.MatchTimeout != 250*time.Millisecond {
		t.Errorf("MatchTimeout = %v", cfg.Rules.MatchTimeout)
	}
	if cfg.Messages.TimedDelay != 20*time.Minute {
		t.Errorf("TimedDelay = %v", cfg.Messages.TimedDelay)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}

	// Untouched fields keep their defaults.
	if !cfg.Rules.StripColors || cfg.Admin.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"empty rules dir", func(c *Config) { c.Rules.Dir = "" }, "rules.dir"},
		{"unknown apply_on", func(c *Config) { c.Rules.ApplyOn = []string{"book"} }, "apply_on"},
		{"zero match timeout", func(c *Config) { c.Rules.MatchTimeout = 0 }, "match_timeout"},
		{"unknown message type", func(c *Config) { c.Messages.Enabled = []string{"respawn"} }, "messages.enabled"},
		{"zero timed delay", func(c *Config) { c.Messages.TimedDelay = 0 }, "timed_delay"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"admin without address", func(c *Config) { c.Admin.ListenAddress = "" }, "admin.listen_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}
}
