// File: client/probe_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-echo/client"
	"github.com/momentics/hioload-echo/internal/session"
	"github.com/momentics/hioload-echo/server"
)

func startServer(t *testing.T, window time.Duration) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := server.DefaultConfig()
	cfg.Session.IdleWindow = server.Duration{Duration: window}
	cfg.Session.CloseGrace = server.Duration{Duration: 200 * time.Millisecond}
	s, err := server.New(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestProbe_RoundTrips(t *testing.T) {
	url := startServer(t, 5*time.Second)
	cfg := client.DefaultProbeConfig(url)
	cfg.Messages = 5
	cfg.Binary = true
	cfg.PayloadSize = 512

	res, err := client.Probe(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, session.DefaultGreeting, res.Greeting)
	assert.Equal(t, 5, res.Echoed)
	assert.Len(t, res.RTTs, 5)
	assert.Greater(t, res.MaxRTT(), time.Duration(0))
}

func TestProbe_AwaitClose(t *testing.T) {
	url := startServer(t, 300*time.Millisecond)
	cfg := client.DefaultProbeConfig(url)
	cfg.Messages = 1
	cfg.AwaitClose = true

	res, err := client.Probe(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{session.TimeoutNotice, session.ByeNotice}, res.Notices)
	assert.Equal(t, websocket.CloseNormalClosure, res.CloseCode)
	assert.GreaterOrEqual(t, res.Elapsed, 300*time.Millisecond)
}

func TestProbe_OversizedPayloadFails(t *testing.T) {
	url := startServer(t, 5*time.Second)
	cfg := client.DefaultProbeConfig(url)
	cfg.Messages = 1
	cfg.PayloadSize = server.DefaultMaxMessageSize + 1

	res, err := client.Probe(context.Background(), cfg)
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Echoed)
}

func TestProbe_DialError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := client.Probe(ctx, client.DefaultProbeConfig("ws://127.0.0.1:1/ws"))
	assert.Error(t, err)
}
