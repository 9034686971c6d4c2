// File: server/shutdown_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/internal/session"
)

func serveLocal(t *testing.T, cfg *Config) (*Server, string, chan struct{}, <-chan error) {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln, stop) }()
	return s, "ws://" + ln.Addr().String() + "/ws", stop, done
}

func TestServe_DrainWaitsForLiveSessions(t *testing.T) {
	s, url, stop, done := serveLocal(t, echoConfig(600*time.Millisecond))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readText(t, conn)
	opened := time.Now()

	close(stop)
	require.Eventually(t, s.Draining, time.Second, 5*time.Millisecond)

	// the live session keeps working while the server drains
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("during-drain")))
	assert.Equal(t, "during-drain", readText(t, conn))

	select {
	case err := <-done:
		t.Fatalf("Serve returned before the session ended: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	// new connections are no longer accepted
	_, _, err = websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)

	assert.Equal(t, session.TimeoutNotice, readText(t, conn))
	assert.Equal(t, session.ByeNotice, readText(t, conn))
	readClose(t, conn)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after the session ended")
	}
	assert.GreaterOrEqual(t, time.Since(opened), 500*time.Millisecond)
	assert.Equal(t, int64(1), s.Metrics().Counter(control.MetricSessionsTimedOut))
}

func TestServe_DrainTimeoutBoundsWait(t *testing.T) {
	cfg := echoConfig(5 * time.Second)
	cfg.Shutdown.Timeout = Duration{150 * time.Millisecond}
	_, url, stop, done := serveLocal(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readText(t, conn)

	start := time.Now()
	close(stop)
	select {
	case err := <-done:
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	case <-time.After(3 * time.Second):
		t.Fatal("drain timeout ignored")
	}
}

func TestServe_NoSessionsStopsImmediately(t *testing.T) {
	_, _, stop, done := serveLocal(t, echoConfig(5*time.Second))
	close(stop)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestWS_RefusedWhileDraining(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, s.Draining())

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, int64(1), s.Metrics().Counter(control.MetricUpgradesRejected))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, api.ErrDraining.Error(), body.Error)
	assert.Equal(t, "unavailable", body.Code)
}

func TestRun_ListenError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "256.0.0.1:0"
	s, err := New(cfg)
	require.NoError(t, err)
	assert.Error(t, s.Run(make(chan struct{})))
}

func TestListen_CapsConnections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.MaxConnections = 2
	s, err := New(cfg)
	require.NoError(t, err)
	ln, err := s.Listen()
	require.NoError(t, err)
	defer ln.Close()
	_, plain := ln.(*net.TCPListener)
	assert.False(t, plain, "listener should be wrapped by the connection limiter")
}
