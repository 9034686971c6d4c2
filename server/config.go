// File: server/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server configuration: defaults, TOML loading and validation.

package server

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/juju/errors"

	"github.com/momentics/hioload-echo/internal/logging"
	"github.com/momentics/hioload-echo/internal/session"
)

const (
	DefaultAddr           = ":8080"
	DefaultMaxMessageSize = 1024
	DefaultIdleWindow     = 10 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultCloseGrace     = time.Second
	DefaultReadHeader     = 10 * time.Second

	// MaxSleep caps /sleep/:duration.
	MaxSleep = 30 * time.Second
)

// Duration is a time.Duration written as "10s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Annotatef(err, "duration %q", string(text))
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// SessionConfig tunes echo sessions.
type SessionConfig struct {
	Greeting       string   `toml:"greeting,omitempty" json:"greeting"`
	IdleWindow     Duration `toml:"idle-window,omitempty" json:"idle-window"`
	MaxMessageSize int64    `toml:"max-message-size,omitempty" json:"max-message-size"`
	WriteTimeout   Duration `toml:"write-timeout,omitempty" json:"write-timeout"`
	CloseGrace     Duration `toml:"close-grace,omitempty" json:"close-grace"`
}

// ShutdownConfig bounds the drain. Zero waits for every session.
type ShutdownConfig struct {
	Timeout Duration `toml:"timeout,omitempty" json:"timeout"`
}

// CORSConfig lists what browsers may call.
type CORSConfig struct {
	AllowOrigins []string `toml:"allow-origins,omitempty" json:"allow-origins"`
	AllowMethods []string `toml:"allow-methods,omitempty" json:"allow-methods"`
}

// Config holds all server-side configuration parameters.
type Config struct {
	Addr              string   `toml:"addr,omitempty" json:"addr"`                       // TCP bind address
	MaxConnections    int      `toml:"max-connections,omitempty" json:"max-connections"` // 0 = unlimited
	ReadHeaderTimeout Duration `toml:"read-header-timeout,omitempty" json:"read-header-timeout"`

	Session  SessionConfig  `toml:"session" json:"session"`
	Shutdown ShutdownConfig `toml:"shutdown" json:"shutdown"`
	CORS     CORSConfig     `toml:"cors" json:"cors"`
	Log      logging.Config `toml:"log" json:"log"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:              DefaultAddr,
		ReadHeaderTimeout: Duration{DefaultReadHeader},
		Session: SessionConfig{
			Greeting:       session.DefaultGreeting,
			IdleWindow:     Duration{DefaultIdleWindow},
			MaxMessageSize: DefaultMaxMessageSize,
			WriteTimeout:   Duration{DefaultWriteTimeout},
			CloseGrace:     Duration{DefaultCloseGrace},
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST"},
		},
		Log: logging.DefaultConfig(),
	}
}

// DefaultConfigTOML documents every key with its default.
const DefaultConfigTOML = `
# hioload-echo configuration.

# listen address
addr = ":8080"
# concurrent connection cap, 0 disables it
max-connections = 0
read-header-timeout = "10s"

[session]
greeting = "Hello from hioload-echo!"
# absolute session lifetime, counted from the upgrade; traffic does not extend it
idle-window = "10s"
# larger inbound messages abort the connection with 1009
max-message-size = 1024
write-timeout = "5s"
# how long to wait for the peer's close reply
close-grace = "1s"

[shutdown]
# 0 waits for every live session
timeout = "0s"

[cors]
allow-origins = ["*"]
allow-methods = ["GET", "POST"]

[log]
# debug, info, warn, error
level = "info"
# text or json
format = "text"
file = ""
`

// LoadConfig overlays the TOML file at path onto the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Annotatef(err, "load config %s", path)
	}
	if err := rejectUndecoded(md, path); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ParseConfig overlays TOML text onto the defaults, as strictly as LoadConfig.
func ParseConfig(text string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, errors.Annotate(err, "parse config")
	}
	if err := rejectUndecoded(md, "config text"); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func rejectUndecoded(md toml.MetaData, source string) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.NotValidf("unknown config key %q in %s", undecoded[0].String(), source)
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.NotValidf("empty addr")
	case c.MaxConnections < 0:
		return errors.NotValidf("max-connections %d", c.MaxConnections)
	case c.Session.IdleWindow.Duration <= 0:
		return errors.NotValidf("session idle-window %s", c.Session.IdleWindow)
	case c.Session.MaxMessageSize <= 0:
		return errors.NotValidf("session max-message-size %d", c.Session.MaxMessageSize)
	case c.Session.WriteTimeout.Duration < 0:
		return errors.NotValidf("session write-timeout %s", c.Session.WriteTimeout)
	case c.Shutdown.Timeout.Duration < 0:
		return errors.NotValidf("shutdown timeout %s", c.Shutdown.Timeout)
	}
	return nil
}

// sessionConfig maps the TOML view onto the handler settings.
func (c *Config) sessionConfig() session.Config {
	return session.Config{
		Greeting:     c.Session.Greeting,
		IdleWindow:   c.Session.IdleWindow.Duration,
		WriteTimeout: c.Session.WriteTimeout.Duration,
		CloseGrace:   c.Session.CloseGrace.Duration,
	}
}
