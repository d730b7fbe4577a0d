package httpserver

import "errors"

var (
	// ErrStart reports that the listener could not come up.
	ErrStart = errors.New("failed to start HTTP server")
	// ErrShutdown reports that graceful shutdown did not complete.
	ErrShutdown = errors.New("failed to shutdown HTTP server gracefully")
)
