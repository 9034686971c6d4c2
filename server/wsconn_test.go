package server

import (
	"errors"
	"io"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-echo/api"
)

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(&websocket.CloseError{Code: websocket.CloseNormalClosure}), api.ErrPeerClosed)
	assert.ErrorIs(t, translate(&websocket.CloseError{Code: websocket.CloseAbnormalClosure}), api.ErrPeerClosed)
	assert.ErrorIs(t, translate(io.EOF), api.ErrPeerClosed)
	assert.ErrorIs(t, translate(io.ErrUnexpectedEOF), api.ErrPeerClosed)
	assert.ErrorIs(t, translate(websocket.ErrReadLimit), api.ErrMessageTooBig)

	other := errors.New("connection reset by peer")
	assert.Same(t, other, translate(other))
}
