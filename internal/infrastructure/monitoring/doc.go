/*
Package monitoring provides Prometheus metrics for the terminal backend.

# Overview

Every Metrics instance owns a private registry. It tracks HTTP requests,
terminal session lifecycle, OSC framing outcomes, forwarded output volume,
and WebSocket stream activity.

# Features

- HTTP request metrics (latency, status), labelled by route template
- Session metrics (active, total)
- OSC sequence counts by code and outcome (cwd, copy, ignored, invalid)
- Forwarded output bytes
- WebSocket connection and message metrics
- Uptime

Metrics implements osc.Stats, so a framer can report straight into it.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
