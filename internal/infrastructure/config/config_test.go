package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Terminal config
	assert.Equal(t, 80, cfg.Terminal.Cols)
	assert.Equal(t, 24, cfg.Terminal.Rows)
	assert.Equal(t, 1024*1024, cfg.Terminal.OutputBuffer)
	assert.Equal(t, 4096, cfg.Terminal.ReadSize)
	assert.Empty(t, cfg.Terminal.HomeDir)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                       "9000",
		"HOST":                       "127.0.0.1",
		"TERMINAL_SHELL":             "/bin/zsh",
		"TERMINAL_COLS":              "132",
		"TERMINAL_ROWS":              "43",
		"TERMINAL_CLIPBOARD_HISTORY": "5",
		"TERMINAL_HOME_DIR":          "/home/dev",
		"LOG_LEVEL":                  "debug",
		"LOG_DEV":                    "true",
		"RATE_LIMIT_RPS":             "500",
		"RATE_LIMIT_BURST":           "1000",
		"RATE_LIMIT_ENABLED":         "false",
		"RATE_LIMIT_GLOBAL_RPS":      "50",
		"RATE_LIMIT_GLOBAL_BURST":    "60",
		"TERMINAL_MAX_PENDING":       "4096",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	assert.Equal(t, "/bin/zsh", cfg.Terminal.Shell)
	assert.Equal(t, 132, cfg.Terminal.Cols)
	assert.Equal(t, 43, cfg.Terminal.Rows)
	assert.Equal(t, 5, cfg.Terminal.ClipboardHistory)
	assert.Equal(t, "/home/dev", cfg.Terminal.HomeDir)
	assert.Equal(t, 4096, cfg.Terminal.ReadSize)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 50, cfg.RateLimit.GlobalRPS)
	assert.Equal(t, 60, cfg.RateLimit.GlobalBurst)
	assert.Equal(t, 4096, cfg.Terminal.MaxPending)
}

func TestLoadRejectsGlobalLimitWithoutBurst(t *testing.T) {
	t.Setenv("RATE_LIMIT_GLOBAL_RPS", "10")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global rate limit")
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("TERMINAL_COLS", "wide")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveSizes(t *testing.T) {
	t.Setenv("TERMINAL_READ_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal.read_size")
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termbridge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "7000"

[terminal]
shell = "/bin/fish"
cols = 100
home_dir = "/srv/home"

[logging]
level = "warn"
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/bin/fish", cfg.Terminal.Shell)
	assert.Equal(t, 100, cfg.Terminal.Cols)
	assert.Equal(t, 24, cfg.Terminal.Rows)
	assert.Equal(t, "/srv/home", cfg.Terminal.HomeDir)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
terminal:
  rows: 50
  stream_buffer: 16
rate_limit:
  enabled: false
`), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("TERMINAL_ROWS", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Terminal.Rows)
	assert.Equal(t, 16, cfg.Terminal.StreamBuffer)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	ini := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(ini, []byte("port=1"), 0o600))
	_, err = LoadFile(ini)
	assert.ErrorContains(t, err, "unsupported config file format")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[terminal\ncols = "), 0o600))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}
