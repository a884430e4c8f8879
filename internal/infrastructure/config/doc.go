// Package config provides 12-factor configuration management for the
// terminal backend.
//
// Configuration starts from Default(), is overlaid by an optional TOML or
// YAML file named by CONFIG_FILE, and finally by environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Terminal: Shell, size, buffer sizes, home directory for '~' expansion
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - TERMINAL_SHELL, TERMINAL_COLS, TERMINAL_ROWS, TERMINAL_OUTPUT_BUFFER,
//     TERMINAL_READ_SIZE, TERMINAL_CLIPBOARD_HISTORY, TERMINAL_STREAM_BUFFER,
//     TERMINAL_HOME_DIR
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
