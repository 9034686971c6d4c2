// File: internal/session/handler.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handler drives one echo session from upgrade to teardown.

package session

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/momentics/hioload-echo/api"
)

// Notices sent by the session.
const (
	DefaultGreeting = "Hello from hioload-echo!"
	TimeoutNotice   = "Timeout expired"
	ByeNotice       = "Bye Bye"
)

// Config tunes the session handler.
type Config struct {
	Greeting     string        // first frame of every session
	IdleWindow   time.Duration // absolute session lifetime
	WriteTimeout time.Duration // per-send bound, 0 = none
	CloseGrace   time.Duration // wait for the peer's close reply
}

// DefaultConfig returns the stock session settings.
func DefaultConfig() Config {
	return Config{
		Greeting:     DefaultGreeting,
		IdleWindow:   10 * time.Second,
		WriteTimeout: 5 * time.Second,
		CloseGrace:   time.Second,
	}
}

// Handler runs echo sessions. A single Handler is shared by all
// connections; it holds configuration only.
type Handler struct {
	cfg Config
	log logrus.FieldLogger
}

// NewHandler builds a Handler. A nil logger discards output.
func NewHandler(cfg Config, log logrus.FieldLogger) *Handler {
	def := DefaultConfig()
	if cfg.Greeting == "" {
		cfg.Greeting = def.Greeting
	}
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = def.IdleWindow
	}
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = def.CloseGrace
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Handler{cfg: cfg, log: log}
}

// Config returns the effective configuration.
func (h *Handler) Config() Config {
	return h.cfg
}

type frame struct {
	messageType int
	payload     []byte
	err         error
}

// Serve runs a session on conn until it ends and returns its report.
// Every transport failure is treated as the peer being gone; nothing
// is returned as an error.
func (h *Handler) Serve(conn api.Conn, remote string) api.SessionReport {
	s := New(remote, time.Now(), h.cfg.IdleWindow)
	return h.serve(conn, s)
}

// ServeSession runs a pre-built session, letting the caller register it first.
func (h *Handler) ServeSession(conn api.Conn, s *Session) api.SessionReport {
	return h.serve(conn, s)
}

func (h *Handler) serve(conn api.Conn, s *Session) api.SessionReport {
	log := h.log.WithFields(logrus.Fields{"session": s.ID(), "remote": s.Remote()})
	if err := h.send(conn, api.TextMessage, []byte(h.cfg.Greeting)); err != nil {
		log.WithError(err).Debug("greeting failed")
		s.transition(api.SessionErrored)
		_ = conn.Close()
		return h.finish(s, log)
	}
	s.greeted = true
	s.transition(api.SessionActive)
	log.WithField("deadline", s.Deadline().Format(time.RFC3339Nano)).Debug("session active")

	frames := make(chan frame)
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go readLoop(conn, frames, stop, readerDone)

	h.echoLoop(conn, s, frames, log)
	h.closing(conn, s, frames, readerDone, log)

	close(stop)
	_ = conn.Close()
	<-readerDone
	return h.finish(s, log)
}

func (h *Handler) finish(s *Session, log logrus.FieldLogger) api.SessionReport {
	s.transition(api.SessionClosed)
	s.ended = time.Now()
	log.WithFields(logrus.Fields{
		"outcome":  s.outcome.String(),
		"echoed":   s.echoed,
		"bye":      s.byeSent,
		"duration": s.ended.Sub(s.started).String(),
	}).Info("session ended")
	return s.Report()
}

// readLoop pumps inbound messages in arrival order until the first error.
func readLoop(conn api.Conn, frames chan<- frame, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		mt, p, err := conn.ReadMessage()
		select {
		case frames <- frame{messageType: mt, payload: p, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// echoLoop races the next inbound frame against the remaining lifetime.
func (h *Handler) echoLoop(conn api.Conn, s *Session, frames <-chan frame, log logrus.FieldLogger) {
	for s.State() == api.SessionActive {
		remaining := s.Remaining(time.Now())
		if remaining <= 0 {
			h.timeout(conn, s, log)
			return
		}

		timer := time.NewTimer(remaining)
		select {
		case <-timer.C:
			h.timeout(conn, s, log)

		case f := <-frames:
			timer.Stop()
			h.dispatch(conn, s, f, log)
		}
	}
}

func (h *Handler) timeout(conn api.Conn, s *Session, log logrus.FieldLogger) {
	log.Debug("session deadline reached")
	_ = h.send(conn, api.TextMessage, []byte(TimeoutNotice))
	s.transition(api.SessionTimedOut)
}

func (h *Handler) dispatch(conn api.Conn, s *Session, f frame, log logrus.FieldLogger) {
	if f.err != nil {
		if api.IsPeerClosed(f.err) {
			log.Debug("peer closed")
			s.transition(api.SessionPeerClosed)
		} else {
			log.WithError(f.err).Debug("read failed")
			s.transition(api.SessionErrored)
		}
		return
	}

	switch f.messageType {
	case api.TextMessage, api.BinaryMessage:
		if err := h.send(conn, f.messageType, f.payload); err != nil {
			log.WithError(err).Debug("echo failed")
			s.transition(api.SessionErrored)
			return
		}
		s.echoed++
	default:
		// ping/pong are answered by the transport
	}
}

// closing sends the bye notice and, only if that worked, the close frame.
func (h *Handler) closing(conn api.Conn, s *Session, frames <-chan frame, readerDone <-chan struct{}, log logrus.FieldLogger) {
	s.transition(api.SessionClosing)
	if err := h.send(conn, api.TextMessage, []byte(ByeNotice)); err != nil {
		log.WithError(err).Debug("bye failed, skipping close handshake")
		return
	}
	s.byeSent = true

	deadline := time.Now().Add(h.cfg.CloseGrace)
	if err := conn.WriteControl(api.CloseMessage, closePayload(api.CloseNormalClosure), deadline); err != nil {
		log.WithError(err).Debug("close frame failed")
		return
	}
	awaitPeerClose(frames, readerDone, h.cfg.CloseGrace)
}

// awaitPeerClose discards late frames until the peer answers the close
// or grace elapses.
func awaitPeerClose(frames <-chan frame, readerDone <-chan struct{}, grace time.Duration) {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	for {
		select {
		case f := <-frames:
			if f.err != nil {
				return
			}
		case <-readerDone:
			return
		case <-timer.C:
			return
		}
	}
}

func (h *Handler) send(conn api.Conn, messageType int, data []byte) error {
	if h.cfg.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	return conn.WriteMessage(messageType, data)
}

func closePayload(code int) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(code))
	return buf
}
