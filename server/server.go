// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server hosts the diagnostic endpoints and the /ws echo sessions, and
// drains them on shutdown: stop accepting, refuse new upgrades, then wait
// for every live session to end on its own.

package server

import (
	"context"
	stdlog "log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/internal/logging"
	"github.com/momentics/hioload-echo/internal/session"
)

// Server is the service facade encapsulating router, sessions and control.
type Server struct {
	cfg     *Config
	log     *logrus.Logger
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes

	engine   *gin.Engine
	http     *http.Server
	upgrader websocket.Upgrader
	sessions *session.Handler
	live     session.Registry

	version   string
	buildDate string
	started   time.Time
	counter   atomic.Uint64

	mu       sync.Mutex
	draining bool
	active   sync.WaitGroup
}

var _ api.GracefulShutdown = (*Server)(nil)

// New builds the Server facade.
func New(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	s := &Server{
		cfg:       cfg,
		version:   "dev",
		buildDate: "unknown",
		started:   time.Now().UTC(),
		live:      session.NewRegistry(16),
		probes:    control.NewDebugProbes(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.metrics == nil {
		s.metrics = control.NewMetricsRegistry()
	}

	s.sessions = session.NewHandler(cfg.sessionConfig(), s.log)
	s.upgrader = websocket.Upgrader{
		HandshakeTimeout: cfg.ReadHeaderTimeout.Duration,
		// cross-origin policy is the CORS layer's job
		CheckOrigin: func(*http.Request) bool { return true },
		Error:       s.upgradeError,
	}
	s.probes.RegisterProbe("uptime", func() any { return time.Since(s.started).Round(time.Second).String() })
	s.probes.RegisterProbe("sessions.live", func() any { return s.live.Len() })
	s.probes.RegisterProbe("draining", func() any { return s.Draining() })

	s.engine = s.routes()
	s.http = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
		ErrorLog:          stdlog.New(s.log.WriterLevel(logrus.WarnLevel), "", 0),
	}
	return s, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the runtime metrics registry.
func (s *Server) Metrics() *control.MetricsRegistry {
	return s.metrics
}

// Probes returns the debug probe registry.
func (s *Server) Probes() *control.DebugProbes {
	return s.probes
}

// Sessions returns the registry of live sessions.
func (s *Server) Sessions() session.Registry {
	return s.live
}

// Listen opens the configured address, capped at MaxConnections.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, errors.Annotatef(err, "listen %s", s.cfg.Addr)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	return ln, nil
}

// Run listens on the configured address and serves until stop is closed,
// then drains.
func (s *Server) Run(stop <-chan struct{}) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln, stop)
}

// Serve accepts connections on ln until stop is closed, then drains
// using the configured shutdown timeout.
func (s *Server) Serve(ln net.Listener, stop <-chan struct{}) error {
	s.log.WithField("addr", ln.Addr().String()).Info("echo server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Annotate(err, "serve")
	case <-stop:
	}

	ctx := context.Background()
	if t := s.cfg.Shutdown.Timeout.Duration; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	err := s.Shutdown(ctx)
	<-errCh
	return err
}

// Shutdown stops accepting new connections and upgrades, then waits for
// live sessions to end or ctx to be done. Sessions are never cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	live := s.live.Len()
	s.log.WithField("live_sessions", live).Info("draining")
	start := time.Now()

	if err := s.http.Shutdown(ctx); err != nil {
		return errors.Annotate(err, "stop http")
	}

	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.WithField("took", time.Since(start).String()).Info("shutdown complete")
		return nil
	case <-ctx.Done():
		s.log.WithField("live_sessions", s.live.Len()).Warn("drain interrupted")
		return errors.Annotate(ctx.Err(), "drain")
	}
}

// Draining reports whether Shutdown has started.
func (s *Server) Draining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

// admit reserves a session slot unless the server is draining.
func (s *Server) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.active.Add(1)
	return true
}

// record folds a finished session into the metrics.
func (s *Server) record(r api.SessionReport) {
	s.metrics.Add(control.MetricSessionsActive, -1)
	s.metrics.Add(control.MetricMessagesEchoed, int64(r.Echoed))
	switch r.Outcome {
	case api.SessionTimedOut:
		s.metrics.Add(control.MetricSessionsTimedOut, 1)
	case api.SessionPeerClosed:
		s.metrics.Add(control.MetricSessionsPeer, 1)
	case api.SessionErrored:
		s.metrics.Add(control.MetricSessionsErrored, 1)
	}
}
