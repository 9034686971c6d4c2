// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for api.Conn.

package fake

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/momentics/hioload-echo/api"
)

// ErrWriteFailed is returned by writes once the failure threshold is hit.
var ErrWriteFailed = errors.New("fake: write failed")

// Message is one frame observed on the fake wire.
type Message struct {
	Type int
	Data []byte
}

type inbound struct {
	msg Message
	err error
}

// Conn is an in-memory api.Conn. The test plays the peer: Push feeds
// ReadMessage, Next observes what the session wrote.
type Conn struct {
	mu        sync.Mutex
	sent      []Message
	controls  []Message
	writes    int
	failAfter int
	deadlines []time.Time

	// AutoCloseReply makes the peer answer a close frame.
	AutoCloseReply bool

	in        chan inbound
	out       chan Message
	closed    chan struct{}
	closeOnce sync.Once
}

// NewConn creates a fake connection that never fails writes.
func NewConn() *Conn {
	return &Conn{
		failAfter:      -1,
		AutoCloseReply: true,
		in:             make(chan inbound, 256),
		out:            make(chan Message, 256),
		closed:         make(chan struct{}),
	}
}

// Push queues a data message from the peer.
func (c *Conn) Push(messageType int, data []byte) {
	c.in <- inbound{msg: Message{Type: messageType, Data: append([]byte(nil), data...)}}
}

// PushError queues a read error, e.g. api.ErrPeerClosed.
func (c *Conn) PushError(err error) {
	c.in <- inbound{err: err}
}

// FailWritesAfter lets n more data writes succeed, then fails all of them.
func (c *Conn) FailWritesAfter(n int) {
	c.mu.Lock()
	c.failAfter = c.writes + n
	c.mu.Unlock()
}

// ReadMessage implements api.Conn.
func (c *Conn) ReadMessage() (int, []byte, error) {
	select {
	case m := <-c.in:
		if m.err != nil {
			return 0, nil, m.err
		}
		return m.msg.Type, m.msg.Data, nil
	case <-c.closed:
		return 0, nil, net.ErrClosed
	}
}

// WriteMessage implements api.Conn.
func (c *Conn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed() {
		return net.ErrClosed
	}
	if c.failAfter >= 0 && c.writes >= c.failAfter {
		return ErrWriteFailed
	}
	c.writes++
	m := Message{Type: messageType, Data: append([]byte(nil), data...)}
	c.sent = append(c.sent, m)
	select {
	case c.out <- m:
	default:
	}
	return nil
}

// WriteControl implements api.Conn.
func (c *Conn) WriteControl(messageType int, data []byte, _ time.Time) error {
	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		return net.ErrClosed
	}
	c.controls = append(c.controls, Message{Type: messageType, Data: append([]byte(nil), data...)})
	reply := c.AutoCloseReply && messageType == api.CloseMessage
	c.mu.Unlock()
	if reply {
		c.PushError(api.ErrPeerClosed)
	}
	return nil
}

// SetWriteDeadline implements api.Conn.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadlines = append(c.deadlines, t)
	c.mu.Unlock()
	return nil
}

// Close implements api.Conn.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// Next waits up to timeout for the next data message written by the session.
func (c *Conn) Next(timeout time.Duration) (Message, bool) {
	select {
	case m := <-c.out:
		return m, true
	case <-time.After(timeout):
		return Message{}, false
	}
}

// Sent returns every data message written so far.
func (c *Conn) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

// Controls returns every control frame written so far.
func (c *Conn) Controls() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.controls...)
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	return c.isClosed()
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

var _ api.Conn = (*Conn)(nil)
