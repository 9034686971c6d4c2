// File: server/options.go
// Package server defines functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/momentics/hioload-echo/control"
)

// Option customizes server initialization.
type Option func(*Server)

// WithLogger routes server and session logs to log.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics shares an existing metrics registry.
func WithMetrics(reg *control.MetricsRegistry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// WithBuildInfo sets what /about reports.
func WithBuildInfo(version, buildDate string) Option {
	return func(s *Server) {
		s.version = version
		s.buildDate = buildDate
	}
}

// WithStartTime overrides the start date reported by /about.
func WithStartTime(t time.Time) Option {
	return func(s *Server) {
		s.started = t
	}
}
