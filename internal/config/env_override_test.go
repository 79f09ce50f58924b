package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("SPECBISECT_RUNNER replaces command", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SPECBISECT_RUNNER", "bin/rspec")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "bin/rspec", cfg.Runner.Command)
	})

	t.Run("SPECBISECT_TRIAL_TIMEOUT sets timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SPECBISECT_TRIAL_TIMEOUT", "45s")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "45s", cfg.Runner.TrialTimeout)
	})

	t.Run("SPECBISECT_LOG_DIR and SPECBISECT_DEBUG", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SPECBISECT_LOG_DIR", "/tmp/sb-logs")
		t.Setenv("SPECBISECT_DEBUG", "true")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/tmp/sb-logs", cfg.Logging.Dir)
		assert.True(t, cfg.Logging.DebugMode)
	})

	t.Run("unparseable SPECBISECT_DEBUG is ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SPECBISECT_DEBUG", "loud")
		cfg := DefaultConfig()
		cfg.Logging.DebugMode = true
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)
	})

	t.Run("empty vars change nothing", func(t *testing.T) {
		clearEnv(t)
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SPECBISECT_RUNNER")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SPECBISECT_RUNNER=bin/spring rspec\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("SPECBISECT_RUNNER") })

	cfg, err := Load(filepath.Join(dir, DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, "bin/spring rspec", cfg.Runner.Command)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPECBISECT_RUNNER", "from-env")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SPECBISECT_RUNNER=from-dotenv\n"), 0644))

	cfg, err := Load(filepath.Join(dir, DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Runner.Command)
}

func TestVerboseFromEnv(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("DEBUG_RSPEC_BISECT", "")
	assert.False(t, cfg.VerboseFromEnv())
	t.Setenv("DEBUG_RSPEC_BISECT", "1")
	assert.True(t, cfg.VerboseFromEnv())

	cfg.Report.VerboseEnv = ""
	assert.False(t, cfg.VerboseFromEnv())
}

func TestLoadWithSources(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SPECBISECT_RUNNER")
	t.Cleanup(func() { os.Unsetenv("SPECBISECT_RUNNER") })
	t.Setenv("SPECBISECT_DEBUG", "1")

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)

	_, sources, err := LoadWithSources(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"defaults", "env SPECBISECT_DEBUG"}, sources, "a missing file is not a source")

	require.NoError(t, os.WriteFile(path, []byte("runner:\n  command: bin/rspec\n"), 0644))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SPECBISECT_RUNNER=bin/spring rspec\n"), 0644))

	cfg, sources, err := LoadWithSources(path)
	require.NoError(t, err)
	assert.Equal(t, "bin/spring rspec", cfg.Runner.Command)
	assert.Equal(t, []string{
		"defaults",
		"file " + path,
		"dotenv " + envPath,
		"env SPECBISECT_RUNNER",
		"env SPECBISECT_DEBUG",
	}, sources)
}
