// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-echo components.

package benchmarks

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/fake"
	"github.com/momentics/hioload-echo/internal/session"
	"github.com/momentics/hioload-echo/server"
)

func newServer(b *testing.B, window time.Duration) *server.Server {
	gin.SetMode(gin.TestMode)
	cfg := server.DefaultConfig()
	cfg.Session.IdleWindow = server.Duration{Duration: window}
	srv, err := server.New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	return srv
}

// BenchmarkRegistryAddDelete tests sharded live-session registry churn.
func BenchmarkRegistryAddDelete(b *testing.B) {
	reg := session.NewRegistry(16)
	now := time.Now()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			info := session.InfoOf(session.New("127.0.0.1:1", now, time.Second))
			reg.Add(info)
			reg.Delete(info.ID)
		}
	})
}

// BenchmarkMetricsAdd tests contended counter updates.
func BenchmarkMetricsAdd(b *testing.B) {
	m := control.NewMetricsRegistry()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Add(control.MetricMessagesEchoed, 1)
		}
	})
}

// BenchmarkHandlerEcho tests the session echo loop over an in-memory conn.
func BenchmarkHandlerEcho(b *testing.B) {
	cfg := session.DefaultConfig()
	cfg.IdleWindow = time.Hour
	cfg.CloseGrace = time.Millisecond
	h := session.NewHandler(cfg, nil)
	data := make([]byte, 1024)

	conn := fake.NewConn()
	done := make(chan struct{})
	go func() {
		h.Serve(conn, "bench")
		close(done)
	}()
	if _, ok := conn.Next(time.Second); !ok {
		b.Fatal("no greeting")
	}

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		conn.Push(websocket.BinaryMessage, data)
		if _, ok := conn.Next(time.Second); !ok {
			b.Fatal("echo lost")
		}
	}
	b.StopTimer()
	conn.PushError(api.ErrPeerClosed)
	<-done
}

// BenchmarkWebSocketRoundTrip tests end-to-end echo latency through the server.
func BenchmarkWebSocketRoundTrip(b *testing.B) {
	ts := httptest.NewServer(newServer(b, time.Hour).Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		b.Fatal(err)
	}
	defer conn.Close()
	if _, _, err := conn.ReadMessage(); err != nil {
		b.Fatal(err)
	}
	data := []byte(strings.Repeat("x", 512))

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			b.Fatal(err)
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCounter tests the POST /counter path through the router.
func BenchmarkCounter(b *testing.B) {
	h := newServer(b, time.Second).Handler()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/counter", nil))
			if rec.Code != http.StatusOK {
				b.Error("status " + strconv.Itoa(rec.Code))
			}
		}
	})
}
