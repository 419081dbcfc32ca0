// Package config loads and validates the warden settings file.
//
// Configuration follows a Default / Load / Validate split: Default returns a
// complete working configuration, Load overlays a YAML file onto it, and
// Validate rejects inconsistent results before anything starts.
package config

import "time"

// Config is the root configuration structure for warden.
type Config struct {
	// Rules configures the text-event rule pipeline.
	Rules RulesConfig `yaml:"rules"`

	// Messages configures structural event messages and timed broadcasts.
	Messages MessagesConfig `yaml:"messages"`

	// Database configures the persisted key and warning-points stores.
	Database DatabaseConfig `yaml:"database"`

	// Admin configures the admin HTTP server (/metrics, /healthz, reload).
	Admin AdminConfig `yaml:"admin"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`
}

// RulesConfig configures rule loading and evaluation.
type RulesConfig struct {
	// Dir is the directory holding rule files (chat.rs, command.rs, ...).
	// Default: "rules"
	Dir string `yaml:"dir"`

	// ApplyOn lists the text event types rules run for. An empty list
	// disables text filtering entirely.
	// Default: ["chat", "command", "sign", "tag"]
	ApplyOn []string `yaml:"apply_on"`

	// StopOnFirstMatch halts the pipeline after the first rule that denies,
	// kicks or aborts. When false, later rules keep applying cumulatively.
	// Default: true
	StopOnFirstMatch bool `yaml:"stop_on_first_match"`

	// StripColors removes color codes from the working text before matching
	// unless a rule overrides it.
	// Default: true
	StripColors bool `yaml:"strip_colors"`

	// StripAccents folds accented letters to ASCII before matching unless a
	// rule overrides it.
	// Default: true
	StripAccents bool `yaml:"strip_accents"`

	// MatchTimeout bounds a single regex evaluation; patterns exceeding it
	// count as non-matching and are reported once per reload.
	// Default: 100ms
	MatchTimeout time.Duration `yaml:"match_timeout"`

	// Verbose logs every rule match with its full context.
	// Default: false
	Verbose bool `yaml:"verbose"`

	// Watch enables automatic reload when rule files change on disk.
	// Default: true
	Watch bool `yaml:"watch"`

	// WatchDebounce is how long to wait after the last file event before
	// reloading, coalescing editor save bursts.
	// Default: 500ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// MessagesConfig configures structural event messages.
type MessagesConfig struct {
	// Dir is the directory holding message files (join.rs, death.rs, ...).
	// Default: "messages"
	Dir string `yaml:"dir"`

	// Enabled lists the structural event types served. An empty list disables
	// structural messages.
	// Default: ["join", "quit", "kick", "death", "timed"]
	Enabled []string `yaml:"enabled"`

	// TimedDelay is the broadcast interval for timed groups that do not set
	// their own delay.
	// Default: 3m
	TimedDelay time.Duration `yaml:"timed_delay"`
}

// DatabaseConfig configures the SQLite stores.
type DatabaseConfig struct {
	// KeysPath is the persisted key database file. Empty keeps keys in
	// memory only.
	// Default: "data/keys.db"
	KeysPath string `yaml:"keys_path"`

	// PointsPath is the warning-points database file. Empty keeps points in
	// memory only.
	// Default: "data/points.db"
	PointsPath string `yaml:"points_path"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	// Enabled controls whether the admin server starts at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port for the admin server.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`
}
