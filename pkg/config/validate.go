package config

import (
	"fmt"
	"slices"
)

var (
	validRuleTypes    = []string{"chat", "command", "sign", "tag"}
	validMessageTypes = []string{"join", "quit", "kick", "death", "timed"}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
	validLogFormats   = []string{"text", "json"}
)

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Rules.Dir == "" {
		return fmt.Errorf("rules.dir cannot be empty")
	}
	for _, t := range c.Rules.ApplyOn {
		if !slices.Contains(validRuleTypes, t) {
			return fmt.Errorf("rules.apply_on: unknown event type %q (valid: %v)", t, validRuleTypes)
		}
	}
	if c.Rules.MatchTimeout <= 0 {
		return fmt.Errorf("rules.match_timeout must be positive")
	}
	if c.Rules.Watch && c.Rules.WatchDebounce <= 0 {
		return fmt.Errorf("rules.watch_debounce must be positive when watch is enabled")
	}

	if c.Messages.Dir == "" {
		return fmt.Errorf("messages.dir cannot be empty")
	}
	for _, t := range c.Messages.Enabled {
		if !slices.Contains(validMessageTypes, t) {
			return fmt.Errorf("messages.enabled: unknown event type %q (valid: %v)", t, validMessageTypes)
		}
	}
	if c.Messages.TimedDelay <= 0 {
		return fmt.Errorf("messages.timed_delay must be positive")
	}

	if c.Admin.Enabled && c.Admin.ListenAddress == "" {
		return fmt.Errorf("admin.listen_address cannot be empty when admin is enabled")
	}

	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q (valid: %v)", c.Logging.Level, validLogLevels)
	}
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format: unknown format %q (valid: %v)", c.Logging.Format, validLogFormats)
	}

	return nil
}
