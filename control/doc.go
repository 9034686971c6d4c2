// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the echo service.
//
// Provides concurrent-safe state handling primitives including:
//   - Named counters and gauges with snapshot reads
//   - Debug probes evaluated on demand
//
// Sessions never touch this package; the serving layer records their
// outcomes after they return.
package control
