//go:build unix

// Termination request handling on Unix-like systems: process managers and
// container runtimes send SIGTERM to ask for a graceful stop.

package shutdown

import (
	"os"

	"golang.org/x/sys/unix"
)

var terminateSignals = []os.Signal{unix.SIGTERM}
