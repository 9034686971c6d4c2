// control/probes.go
// Author: momentics <momentics@gmail.com>
//
// Live-state gauges for /stats. Unlike metrics, which sessions fold in
// when they end, a probe is read at request time: uptime, sessions still
// open, whether the server is draining.

package control

import "sync"

// DebugProbes maps a /stats key to the function producing its value.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes returns an empty probe set.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe publishes fn under name, replacing an earlier probe.
// fn is called from request goroutines and must be safe for that.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState reads every probe once. The lock is released first: probes
// such as the live-session count take their own locks.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	fns := make(map[string]func() any, len(dp.probes))
	for k, fn := range dp.probes {
		fns[k] = fn
	}
	dp.mu.RUnlock()

	out := make(map[string]any, len(fns))
	for k, fn := range fns {
		out[k] = fn()
	}
	return out
}
