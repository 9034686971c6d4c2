// Package logging
// Author: momentics <momentics@gmail.com>
//
// Builds the process logger from configuration.

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

// Config selects level, format and destination.
type Config struct {
	Level  string `toml:"level,omitempty" json:"level"`   // debug, info, warn, error
	Format string `toml:"format,omitempty" json:"format"` // text or json
	File   string `toml:"file,omitempty" json:"file"`     // empty = stderr
}

// DefaultConfig logs info and above as text to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text"}
}

// New creates a logger. The returned closer releases the log file, if any.
func New(cfg Config) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "log level %q", cfg.Level)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, errors.NotValidf("log format %q", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Annotate(err, "open log file")
		}
		log.SetOutput(f)
		closer = f
	} else {
		log.SetOutput(os.Stderr)
	}
	return log, closer, nil
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
