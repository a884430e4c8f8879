// Package server wires the terminal backend together.
//
// It builds the logger, metrics, terminal session manager and service
// registry from config, then mounts the middleware stack, REST handlers, the
// WebSocket stream and the Prometheus endpoint on a Gin router.
package server
