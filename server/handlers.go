// File: server/handlers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Plain request/response diagnostic endpoints.

package server

import (
	_ "embed"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/internal/session"
)

//go:embed index.html
var indexHTML []byte

// proxyHeaders are added by the ingress and hidden from /headers.
var proxyHeaders = map[string]struct{}{
	"x-forwarded-for":    {},
	"x-forwarded-host":   {},
	"x-forwarded-port":   {},
	"x-forwarded-proto":  {},
	"x-forwarded-scheme": {},
	"x-real-ip":          {},
	"x-request-id":       {},
	"x-scheme":           {},
}

const invalidHeaderValue = "invalid string"

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

type aboutResponse struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	StartDate string `json:"start_date"`
}

func (s *Server) handleAbout(c *gin.Context) {
	c.JSON(http.StatusOK, aboutResponse{
		Version:   s.version,
		BuildDate: s.buildDate,
		StartDate: s.started.Format(time.RFC3339Nano),
	})
}

type counterResponse struct {
	Counter uint64 `json:"counter"`
}

// handleCounter returns 1, 2, 3... across all callers.
func (s *Server) handleCounter(c *gin.Context) {
	n := s.counter.Add(1)
	s.metrics.Set(control.MetricCounter, n)
	c.JSON(http.StatusOK, counterResponse{Counter: n})
}

func (s *Server) handleSleep(c *gin.Context) {
	raw := c.Param("duration")
	ms, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || ms > uint64(MaxSleep/time.Millisecond) {
		s.abortWith(c, api.NewError(api.ErrCodeInvalidArgument, api.ErrInvalidArgument).
			With("duration", raw).
			With("max_ms", int64(MaxSleep/time.Millisecond)))
		return
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		c.Status(http.StatusOK)
	case <-c.Request.Context().Done():
		// client went away
	}
}

// handleHeaders reflects request headers, lowercased and sorted by name.
func (s *Server) handleHeaders(c *gin.Context) {
	out := make(map[string]string, len(c.Request.Header)+1)
	if c.Request.Host != "" {
		out["host"] = c.Request.Host
	}
	for name, values := range c.Request.Header {
		key := strings.ToLower(name)
		if _, hidden := proxyHeaders[key]; hidden || len(values) == 0 {
			continue
		}
		v := values[len(values)-1]
		if !visibleASCII(v) {
			v = invalidHeaderValue
		}
		out[key] = v
	}
	// encoding/json sorts map keys
	c.JSON(http.StatusOK, out)
}

type ipResponse struct {
	IP string `json:"ip"`
}

func (s *Server) handleIP(c *gin.Context) {
	ip := c.GetHeader("X-Real-Ip")
	if !visibleASCII(ip) {
		ip = ""
	}
	c.JSON(http.StatusOK, ipResponse{IP: ip})
}

type statsResponse struct {
	Metrics  map[string]any `json:"metrics"`
	Probes   map[string]any `json:"probes"`
	Sessions []session.Info `json:"sessions"`
}

func (s *Server) handleStats(c *gin.Context) {
	live := make([]session.Info, 0, s.live.Len())
	s.live.Range(func(info session.Info) { live = append(live, info) })
	c.JSON(http.StatusOK, statsResponse{
		Metrics:  s.metrics.GetSnapshot(),
		Probes:   s.probes.DumpState(),
		Sessions: live,
	})
}

// visibleASCII matches what an HTTP header value may hold as plain text.
func visibleASCII(v string) bool {
	for i := 0; i < len(v); i++ {
		b := v[i]
		if (b < 0x20 && b != '\t') || b >= 0x7f {
			return false
		}
	}
	return true
}
