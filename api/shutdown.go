// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "context"

// GracefulShutdown stops admitting new work and waits for in-flight work.
type GracefulShutdown interface {
	// Shutdown returns once every active handler finished or ctx is done.
	Shutdown(ctx context.Context) error
}

// ShutdownNotifier exposes a once-only process stop notification.
type ShutdownNotifier interface {
	// Done is closed when shutdown was requested.
	Done() <-chan struct{}
}
