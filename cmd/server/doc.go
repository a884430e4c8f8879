// Package main is the entry point for the termbridge terminal backend.
//
// The server spawns shells on pseudo-terminals and serves their output to
// renderers with OSC shell-integration sequences (working directory,
// clipboard) decoded into events.
//
// Configuration:
//   - Defaults, then an optional TOML or YAML file, then environment variables
//   - CLI flags override all of them
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev -config termbridge.toml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown (all sessions are killed)
package main
