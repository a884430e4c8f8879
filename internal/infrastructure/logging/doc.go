// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Terminal sessions log through a child logger carrying their session ID,
// and the OSC framer reports ignored sequences at debug level only, so a
// production logger stays quiet about ordinary shell traffic.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	sessLog := logger.Session("sess_01J...")
//	sessLog.Debug("Ignoring OSC sequence", zap.Int("code", 0))
package logging
