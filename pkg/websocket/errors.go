package websocket

import "errors"

// Common errors for the websocket package.
var (
	// ErrSessionClosed indicates the session is closed.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionNotFound indicates the session was not found.
	ErrSessionNotFound = errors.New("session not found")
	// ErrHostNotRunning indicates the host is not accepting sessions.
	ErrHostNotRunning = errors.New("service host is not running")
)
