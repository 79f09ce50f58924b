package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SPECBISECT_RUNNER", "SPECBISECT_TRIAL_TIMEOUT", "SPECBISECT_LOG_DIR", "SPECBISECT_DEBUG"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Runner.Command != "rspec" {
		t.Errorf("expected Command=rspec, got %s", cfg.Runner.Command)
	}
	if cfg.Runner.InconsistencyMarker != DefaultInconsistencyMarker {
		t.Errorf("unexpected marker %q", cfg.Runner.InconsistencyMarker)
	}
	if cfg.Report.VerboseEnv != "DEBUG_RSPEC_BISECT" {
		t.Errorf("expected VerboseEnv=DEBUG_RSPEC_BISECT, got %s", cfg.Report.VerboseEnv)
	}
	if cfg.GetTrialTimeout() != 0 {
		t.Errorf("expected no trial timeout by default, got %v", cfg.GetTrialTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultPath)

	cfg := DefaultConfig()
	cfg.Runner.Command = "bundle exec rspec"
	cfg.Runner.TrialTimeout = "90s"
	cfg.Bisect.VerifyBaseline = true
	cfg.Bisect.Signature = "ids"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, 90*time.Second, loaded.GetTrialTimeout())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("bisect:\n  verify_baseline: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Bisect.VerifyBaseline)
	assert.Equal(t, "rspec", cfg.Runner.Command)
	assert.Equal(t, "full", cfg.Bisect.Signature)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("runner: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty runner", func(c *Config) { c.Runner.Command = "" }, "Command"},
		{"bad timeout", func(c *Config) { c.Runner.TrialTimeout = "soon" }, "TrialTimeout"},
		{"bad signature", func(c *Config) { c.Bisect.Signature = "fuzzy" }, "Signature"},
		{"bad color", func(c *Config) { c.Report.Color = "sometimes" }, "Color"},
		{"bad quoting", func(c *Config) { c.Runner.QuoteIDs = "maybe" }, "QuoteIDs"},
		{"bad env pair", func(c *Config) { c.Runner.Env = []string{"NOEQUALS"} }, "Env"},
		{"negative output cap", func(c *Config) { c.Runner.MaxOutputBytes = -1 }, "MaxOutputBytes"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	ok := DefaultConfig()
	ok.Runner.TrialTimeout = "2m30s"
	ok.Runner.Env = []string{"RAILS_ENV=test"}
	assert.NoError(t, ok.Validate())
}

func TestGetTrialTimeout_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runner.TrialTimeout = "-5s"
	assert.Zero(t, cfg.GetTrialTimeout())
	cfg.Runner.TrialTimeout = "garbage"
	assert.Zero(t, cfg.GetTrialTimeout())
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig{DebugMode: true, Level: "debug", Format: "json", Dir: "/tmp/sb-logs", Categories: map[string]bool{"report": false}}

	opts := lc.Options()
	assert.True(t, opts.JSONFormat)
	assert.True(t, opts.DebugMode)
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, "/tmp/sb-logs", opts.Dir)
	assert.Equal(t, map[string]bool{"report": false}, opts.Categories)

	assert.False(t, (&LoggingConfig{Format: "text"}).Options().JSONFormat)
}
