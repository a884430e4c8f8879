// Package utils provides request validation shared by the HTTP and
// WebSocket handlers.
package utils
