// File: internal/session/session.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection echo session state.

package session

import (
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"

	"github.com/momentics/hioload-echo/api"
)

// transitions lists the legal state moves.
var transitions = map[api.SessionState][]api.SessionState{
	api.SessionGreeting:   {api.SessionActive, api.SessionErrored},
	api.SessionActive:     {api.SessionTimedOut, api.SessionPeerClosed, api.SessionErrored},
	api.SessionTimedOut:   {api.SessionClosing},
	api.SessionPeerClosed: {api.SessionClosing},
	api.SessionErrored:    {api.SessionClosing, api.SessionClosed},
	api.SessionClosing:    {api.SessionClosed},
}

// Session holds the state of one echo session. It is not safe for
// concurrent use.
type Session struct {
	id       string
	remote   string
	started  time.Time
	deadline time.Time
	ended    time.Time

	state   api.SessionState
	outcome api.SessionState
	history *queue.Queue

	echoed  int
	greeted bool
	byeSent bool
}

// New creates a session started at now with deadline now+window.
func New(remote string, now time.Time, window time.Duration) *Session {
	s := &Session{
		id:       uuid.NewString(),
		remote:   remote,
		started:  now,
		deadline: now.Add(window),
		state:    api.SessionGreeting,
		history:  queue.New(),
	}
	s.history.Add(api.SessionGreeting)
	return s
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// Remote returns the peer address.
func (s *Session) Remote() string {
	return s.remote
}

// Started returns the session start time.
func (s *Session) Started() time.Time {
	return s.started
}

// Deadline returns the absolute session expiry.
func (s *Session) Deadline() time.Time {
	return s.deadline
}

// State returns the current lifecycle state.
func (s *Session) State() api.SessionState {
	return s.state
}

// Remaining returns how long until the deadline, never negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	if d := s.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Expired reports whether the deadline has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.deadline)
}

// transition moves the session to next. Illegal moves panic: they are
// programming errors in the handler, not peer behavior.
func (s *Session) transition(next api.SessionState) {
	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.state = next
			if next.Terminal() {
				s.outcome = next
			}
			s.history.Add(next)
			return
		}
	}
	panic("session: illegal transition " + s.state.String() + " -> " + next.String())
}

// Report snapshots the session for the serving layer.
func (s *Session) Report() api.SessionReport {
	timeline := make([]api.SessionState, 0, s.history.Length())
	for i := 0; i < s.history.Length(); i++ {
		timeline = append(timeline, s.history.Get(i).(api.SessionState))
	}
	return api.SessionReport{
		ID:       s.id,
		Remote:   s.remote,
		Started:  s.started,
		Ended:    s.ended,
		Outcome:  s.outcome,
		Echoed:   s.echoed,
		ByeSent:  s.byeSent,
		Greeted:  s.greeted,
		Timeline: timeline,
	}
}
