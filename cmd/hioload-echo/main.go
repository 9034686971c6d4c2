// File: cmd/hioload-echo/main.go
// Package main
// Diagnostic echo/test HTTP service: counter, sleep, header and IP
// reflection, and a WebSocket echo on /ws.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"github.com/momentics/hioload-echo/internal/logging"
	"github.com/momentics/hioload-echo/internal/shutdown"
	"github.com/momentics/hioload-echo/server"
)

// Set with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hioload-echo: %s\n", errors.ErrorStack(err))
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "TOML configuration file")
	addr := flag.String("addr", "", "listen address, overrides the config file")
	printConfig := flag.Bool("print-config", false, "print the default configuration and exit")
	flag.Parse()

	if *printConfig {
		fmt.Print(server.DefaultConfigTOML)
		return nil
	}

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		return errors.Trace(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return errors.Trace(err)
	}
	defer closer.Close()
	gin.SetMode(gin.ReleaseMode)

	// install before serving so an early SIGTERM is not lost
	coord := shutdown.Listen(log)
	defer coord.Stop()

	srv, err := server.New(cfg,
		server.WithLogger(log),
		server.WithBuildInfo(version, buildDate),
	)
	if err != nil {
		return errors.Trace(err)
	}
	log.WithField("version", version).Info("starting hioload-echo")
	return errors.Trace(srv.Run(coord.Done()))
}
