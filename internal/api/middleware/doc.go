// Package middleware provides the HTTP middleware stack for the terminal
// backend.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing, WebSocket upgrades included
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - RequestID: X-Request-ID propagation
//   - RequestLogger: One zap line per request, keyed by route template
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.RequestLogger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
