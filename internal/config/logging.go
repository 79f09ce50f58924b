package config

import "specbisect/internal/logging"

// LoggingConfig configures the diagnostic log.
type LoggingConfig struct {
	Level      string          `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string          `yaml:"format" validate:"omitempty,oneof=json text"`
	Dir        string          `yaml:"dir"`
	DebugMode  bool            `yaml:"debug_mode"` // Master toggle - false = no logging
	Categories map[string]bool `yaml:"categories,omitempty"` // Per-category toggles
}

// Options converts the config into logging.Options.
func (c *LoggingConfig) Options() logging.Options {
	return logging.Options{
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		JSONFormat: c.Format == "json",
		Dir:        c.Dir,
		Categories: c.Categories,
	}
}
