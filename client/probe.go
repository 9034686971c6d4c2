// File: client/probe.go
// Package client probes a hioload-echo /ws endpoint from the outside.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A probe dials the endpoint, reads the greeting, round-trips a number of
// messages measuring latency, and optionally stays connected until the
// server closes the session, recording the notices it sends on the way out.

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

// ProbeConfig holds the probe parameters.
type ProbeConfig struct {
	URL         string        // ws:// or wss:// endpoint
	Messages    int           // round trips to perform
	PayloadSize int           // bytes per message, 0 = short text
	Binary      bool          // send binary frames instead of text
	Interval    time.Duration // pause between round trips
	Timeout     time.Duration // per read/write bound
	AwaitClose  bool          // stay until the server closes
	Header      http.Header   // extra handshake headers
}

// DefaultProbeConfig returns a three-message text probe.
func DefaultProbeConfig(url string) ProbeConfig {
	return ProbeConfig{
		URL:      url,
		Messages: 3,
		Timeout:  15 * time.Second,
	}
}

// ProbeResult is what a probe observed.
type ProbeResult struct {
	Greeting  string
	Echoed    int
	RTTs      []time.Duration
	Notices   []string // text frames after the echo phase
	CloseCode int      // 0 when the connection dropped without a close frame
	Elapsed   time.Duration
}

// MaxRTT returns the slowest round trip.
func (r *ProbeResult) MaxRTT() time.Duration {
	var max time.Duration
	for _, d := range r.RTTs {
		if d > max {
			max = d
		}
	}
	return max
}

// Probe runs cfg against the endpoint.
func Probe(ctx context.Context, cfg ProbeConfig) (*ProbeResult, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	start := time.Now()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, cfg.Header)
	if err != nil {
		return nil, errors.Annotatef(err, "dial %s", cfg.URL)
	}
	defer conn.Close()

	res := &ProbeResult{}
	mt, greeting, err := read(conn, cfg.Timeout)
	if err != nil {
		return nil, errors.Annotate(err, "read greeting")
	}
	if mt != websocket.TextMessage {
		return nil, errors.Errorf("greeting is not text (type %d)", mt)
	}
	res.Greeting = string(greeting)

	sendType := websocket.TextMessage
	if cfg.Binary {
		sendType = websocket.BinaryMessage
	}
	for i := 0; i < cfg.Messages; i++ {
		if err := ctx.Err(); err != nil {
			return res, errors.Trace(err)
		}
		payload := payloadFor(i, cfg.PayloadSize)
		sent := time.Now()
		if err := conn.SetWriteDeadline(sent.Add(cfg.Timeout)); err != nil {
			return res, errors.Trace(err)
		}
		if err := conn.WriteMessage(sendType, payload); err != nil {
			return res, errors.Annotatef(err, "send #%d", i)
		}
		mt, echo, err := read(conn, cfg.Timeout)
		if err != nil {
			return res, errors.Annotatef(err, "echo #%d", i)
		}
		if mt != sendType || !bytes.Equal(echo, payload) {
			return res, errors.Errorf("echo #%d mismatch: got type %d %q", i, mt, truncate(echo))
		}
		res.RTTs = append(res.RTTs, time.Since(sent))
		res.Echoed++

		if cfg.Interval > 0 && i < cfg.Messages-1 {
			select {
			case <-time.After(cfg.Interval):
			case <-ctx.Done():
				return res, errors.Trace(ctx.Err())
			}
		}
	}

	if cfg.AwaitClose {
		for {
			mt, p, err := read(conn, cfg.Timeout)
			if err != nil {
				var ce *websocket.CloseError
				if errors.As(err, &ce) {
					res.CloseCode = ce.Code
				}
				break
			}
			if mt == websocket.TextMessage {
				res.Notices = append(res.Notices, string(p))
			}
		}
	} else {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

func read(conn *websocket.Conn, timeout time.Duration) (int, []byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, nil, err
	}
	return conn.ReadMessage()
}

func payloadFor(i, size int) []byte {
	if size <= 0 {
		return []byte(fmt.Sprintf("probe-%d", i))
	}
	return bytes.Repeat([]byte{'a' + byte(i%26)}, size)
}

func truncate(p []byte) []byte {
	if len(p) > 32 {
		return p[:32]
	}
	return p
}
