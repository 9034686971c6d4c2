// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

import "time"

// SessionState enumerates the lifecycle of an echo session.
//
//	Greeting -> Active -> TimedOut|PeerClosed|Errored -> Closing -> Closed
type SessionState int

const (
	SessionGreeting SessionState = iota
	SessionActive
	SessionTimedOut
	SessionPeerClosed
	SessionErrored
	SessionClosing
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionGreeting:
		return "greeting"
	case SessionActive:
		return "active"
	case SessionTimedOut:
		return "timed_out"
	case SessionPeerClosed:
		return "peer_closed"
	case SessionErrored:
		return "errored"
	case SessionClosing:
		return "closing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the loop exit states.
func (s SessionState) Terminal() bool {
	return s == SessionTimedOut || s == SessionPeerClosed || s == SessionErrored
}

// SessionReport summarizes a finished session for the serving layer.
type SessionReport struct {
	ID       string
	Remote   string
	Started  time.Time
	Ended    time.Time
	Outcome  SessionState // loop exit state
	Echoed   int          // frames echoed back
	ByeSent  bool
	Greeted  bool
	Timeline []SessionState
}

// Duration returns the wall time the session was open.
func (r SessionReport) Duration() time.Duration {
	return r.Ended.Sub(r.Started)
}
