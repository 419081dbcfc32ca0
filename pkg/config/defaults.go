package config

import "time"

// Default returns a complete configuration with default values. The result
// is valid on its own; Load overlays file values onto it.
func Default() *Config {
	return &Config{
		Rules: RulesConfig{
			Dir:              "rules",
			ApplyOn:          []string{"chat", "command", "sign", "tag"},
			StopOnFirstMatch: true,
			StripColors:      true,
			StripAccents:     true,
			MatchTimeout:     100 * time.Millisecond,
			Verbose:          false,
			Watch:            true,
			WatchDebounce:    500 * time.Millisecond,
		},
		Messages: MessagesConfig{
			Dir:        "messages",
			Enabled:    []string{"join", "quit", "kick", "death", "timed"},
			TimedDelay: 3 * time.Minute,
		},
		Database: DatabaseConfig{
			KeysPath:   "data/keys.db",
			PointsPath: "data/points.db",
		},
		Admin: AdminConfig{
			Enabled:       true,
			ListenAddress: "127.0.0.1:9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
