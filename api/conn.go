// File: api/conn.go
// Author: momentics <momentics@gmail.com>
//
// Defines the message-oriented connection contract the echo session runs on.
// The transport behind it owns framing, masking, ping/pong replies and the
// inbound size limit.

package api

import "time"

// Message types, numerically equal to RFC 6455 opcodes.
const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)

// CloseNormalClosure is the status the session closes with. Oversize
// closes (1009) are sent by the transport itself.
const CloseNormalClosure = 1000

// Conn is a full-duplex message channel.
//
// ReadMessage must only be called from one goroutine; writes from another.
// Control frames (ping/pong) never surface from ReadMessage.
type Conn interface {
	// ReadMessage blocks for the next data message.
	ReadMessage() (messageType int, p []byte, err error)

	// WriteMessage sends one data message.
	WriteMessage(messageType int, data []byte) error

	// WriteControl sends a control frame with the given deadline.
	WriteControl(messageType int, data []byte, deadline time.Time) error

	// SetWriteDeadline bounds subsequent writes.
	SetWriteDeadline(t time.Time) error

	// Close drops the underlying connection without a handshake.
	Close() error
}
