//go:build !unix

package shutdown

import "os"

// No termination request on this platform; only interrupts resolve.
var terminateSignals []os.Signal
