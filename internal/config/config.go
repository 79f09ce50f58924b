package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"specbisect/internal/logging"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".specbisect.yml"

// DefaultInconsistencyMarker is what rspec prints when --bisect detects that
// the example order changed between runs.
const DefaultInconsistencyMarker = "The example ordering is inconsistent"

// Config holds all specbisect configuration.
type Config struct {
	// Runner invocation
	Runner RunnerConfig `yaml:"runner"`

	// Search behaviour
	Bisect BisectConfig `yaml:"bisect"`

	// Progress output
	Report ReportConfig `yaml:"report"`

	// Diagnostic log
	Logging LoggingConfig `yaml:"logging"`
}

// RunnerConfig configures how the test runner is spawned.
type RunnerConfig struct {
	// Command is split with shell rules, so "bundle exec rspec" works.
	Command string `yaml:"command" validate:"required"`

	// Working directory for every run
	WorkingDirectory string `yaml:"working_directory"`

	// Per-run wall clock limit ("90s", "5m"). Empty or "0" means none.
	TrialTimeout string `yaml:"trial_timeout" validate:"omitempty,duration"`

	// Cap on captured stdout/stderr per stream
	MaxOutputBytes int64 `yaml:"max_output_bytes" validate:"gte=0"`

	// Output text that marks an ordering inconsistency reported by the runner
	InconsistencyMarker string `yaml:"inconsistency_marker"`

	// How ids are quoted in the reproduction command: auto, always, never
	QuoteIDs string `yaml:"quote_ids" validate:"omitempty,oneof=auto always never"`

	// Extra KEY=VALUE pairs for the runner environment
	Env []string `yaml:"env,omitempty" validate:"dive,contains=="`
}

// BisectConfig configures the reduction search.
type BisectConfig struct {
	// Run the baseline twice and abort if the two runs disagree
	VerifyBaseline bool `yaml:"verify_baseline"`

	// Failure comparison: full (ids + class/message) or ids
	Signature string `yaml:"signature" validate:"omitempty,oneof=full ids"`
}

// ReportConfig configures progress output.
type ReportConfig struct {
	// Env var that switches on verbose output when non-empty
	VerboseEnv string `yaml:"verbose_env"`

	// auto, always, never
	Color string `yaml:"color" validate:"omitempty,oneof=auto always never"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Runner: RunnerConfig{
			Command:             "rspec",
			WorkingDirectory:    ".",
			MaxOutputBytes:      10 * 1024 * 1024,
			InconsistencyMarker: DefaultInconsistencyMarker,
			QuoteIDs:            "auto",
		},
		Bisect: BisectConfig{
			Signature: "full",
		},
		Report: ReportConfig{
			VerboseEnv: "DEBUG_RSPEC_BISECT",
			Color:      "auto",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    filepath.Join(".specbisect", "logs"),
		},
	}
}

// Load loads configuration from a YAML file, then applies .env and
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithSources(path)
	return cfg, err
}

// LoadWithSources is Load that also returns what contributed to the result,
// in the order applied. Load runs before the diagnostic log exists, so the
// caller logs the sources once it does.
func LoadWithSources(path string) (*Config, []string, error) {
	cfg := DefaultConfig()
	sources := []string{"defaults"}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to parse config: %w", err)
		}
		sources = append(sources, "file "+path)
	case os.IsNotExist(err):
	default:
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	loaded, err := LoadDotEnv(envPath)
	if err != nil {
		return nil, nil, err
	}
	if loaded {
		sources = append(sources, "dotenv "+envPath)
	}

	sources = append(sources, cfg.applyEnvOverrides()...)
	return cfg, sources, nil
}

// LogSources writes the config provenance to the config log category.
func LogSources(sources []string) {
	for _, src := range sources {
		logging.Config("Config source: %s", src)
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone. A missing file is not an error and
// reports false.
func LoadDotEnv(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides and returns the
// variables that took effect.
func (c *Config) applyEnvOverrides() []string {
	var applied []string
	if cmd := os.Getenv("SPECBISECT_RUNNER"); cmd != "" {
		c.Runner.Command = cmd
		applied = append(applied, "env SPECBISECT_RUNNER")
	}
	if timeout := os.Getenv("SPECBISECT_TRIAL_TIMEOUT"); timeout != "" {
		c.Runner.TrialTimeout = timeout
		applied = append(applied, "env SPECBISECT_TRIAL_TIMEOUT")
	}
	if dir := os.Getenv("SPECBISECT_LOG_DIR"); dir != "" {
		c.Logging.Dir = dir
		applied = append(applied, "env SPECBISECT_LOG_DIR")
	}
	if v := os.Getenv("SPECBISECT_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
			applied = append(applied, "env SPECBISECT_DEBUG")
		}
	}
	return applied
}

// GetTrialTimeout returns the per-run timeout; zero means none.
func (c *Config) GetTrialTimeout() time.Duration {
	if c.Runner.TrialTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Runner.TrialTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// VerboseFromEnv reports whether the verbose env var is set to a non-empty value.
func (c *Config) VerboseFromEnv() bool {
	if c.Report.VerboseEnv == "" {
		return false
	}
	return os.Getenv(c.Report.VerboseEnv) != ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
