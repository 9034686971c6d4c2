// File: server/wsconn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adapts a gorilla connection to api.Conn, mapping transport errors onto
// the service's sentinel errors.

package server

import (
	"errors"
	"fmt"
	"io"

	"github.com/gorilla/websocket"

	"github.com/momentics/hioload-echo/api"
)

type wsConn struct {
	*websocket.Conn
}

var _ api.Conn = wsConn{}

// ReadMessage returns the next data message. Close frames and end of
// stream surface as api.ErrPeerClosed, oversized frames as
// api.ErrMessageTooBig.
func (c wsConn) ReadMessage() (int, []byte, error) {
	mt, p, err := c.Conn.ReadMessage()
	if err != nil {
		return mt, nil, translate(err)
	}
	return mt, p, nil
}

func translate(err error) error {
	var ce *websocket.CloseError
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		return fmt.Errorf("%w: %v", api.ErrMessageTooBig, err)
	case errors.As(err, &ce):
		return fmt.Errorf("%w: %v", api.ErrPeerClosed, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %v", api.ErrPeerClosed, err)
	}
	return err
}
