package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable pointing at an optional config file.
const FileEnv = "CONFIG_FILE"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Terminal  TerminalConfig  `toml:"terminal" yaml:"terminal"`
	Logging   LogConfig       `toml:"logging" yaml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port" yaml:"port"`
	Host string `envconfig:"HOST" toml:"host" yaml:"host"`
}

// TerminalConfig holds pty session defaults and buffer sizes.
type TerminalConfig struct {
	Shell            string `envconfig:"TERMINAL_SHELL" toml:"shell" yaml:"shell"`
	Cols             int    `envconfig:"TERMINAL_COLS" toml:"cols" yaml:"cols"`
	Rows             int    `envconfig:"TERMINAL_ROWS" toml:"rows" yaml:"rows"`
	OutputBuffer     int    `envconfig:"TERMINAL_OUTPUT_BUFFER" toml:"output_buffer" yaml:"output_buffer"`
	ReadSize         int    `envconfig:"TERMINAL_READ_SIZE" toml:"read_size" yaml:"read_size"`
	ClipboardHistory int    `envconfig:"TERMINAL_CLIPBOARD_HISTORY" toml:"clipboard_history" yaml:"clipboard_history"`
	StreamBuffer     int    `envconfig:"TERMINAL_STREAM_BUFFER" toml:"stream_buffer" yaml:"stream_buffer"`
	// MaxPending caps the bytes held for one unterminated OSC sequence.
	MaxPending int `envconfig:"TERMINAL_MAX_PENDING" toml:"max_pending" yaml:"max_pending"`
	// HomeDir replaces '~' in reported working directories. Empty means the
	// home directory of the backend process.
	HomeDir string `envconfig:"TERMINAL_HOME_DIR" toml:"home_dir" yaml:"home_dir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"rps" yaml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled" yaml:"enabled"`
	// GlobalRPS limits all clients together; 0 disables it.
	GlobalRPS   int `envconfig:"RATE_LIMIT_GLOBAL_RPS" toml:"global_rps" yaml:"global_rps"`
	GlobalBurst int `envconfig:"RATE_LIMIT_GLOBAL_BURST" toml:"global_burst" yaml:"global_burst"`
}

// Load builds configuration from defaults, the optional file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
// Fields carry no envconfig defaults so unset variables keep file values.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit config file path (empty for none).
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Terminal: TerminalConfig{
			Cols:             80,
			Rows:             24,
			OutputBuffer:     1024 * 1024,
			ReadSize:         4096,
			ClipboardHistory: 50,
			StreamBuffer:     256,
			MaxPending:       1024 * 1024,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects sizes the terminal manager cannot work with.
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"terminal.cols", c.Terminal.Cols},
		{"terminal.rows", c.Terminal.Rows},
		{"terminal.output_buffer", c.Terminal.OutputBuffer},
		{"terminal.read_size", c.Terminal.ReadSize},
		{"terminal.clipboard_history", c.Terminal.ClipboardHistory},
		{"terminal.stream_buffer", c.Terminal.StreamBuffer},
		{"terminal.max_pending", c.Terminal.MaxPending},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("invalid config: %s must be positive, got %d", check.name, check.value)
		}
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid config: rate limit requires positive rps and burst")
	}
	if c.RateLimit.GlobalRPS < 0 || (c.RateLimit.GlobalRPS > 0 && c.RateLimit.GlobalBurst <= 0) {
		return fmt.Errorf("invalid config: global rate limit requires positive rps and burst")
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file format: %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
