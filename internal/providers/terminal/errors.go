package terminal

import "errors"

var (
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when writing to or resizing an exited session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrInvalidSize is returned for non-positive window dimensions.
	ErrInvalidSize = errors.New("invalid terminal size")

	// ErrInvalidParams is returned by Provider.Execute for missing or
	// mistyped tool parameters.
	ErrInvalidParams = errors.New("invalid parameters")
)
