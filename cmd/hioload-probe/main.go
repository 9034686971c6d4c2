// File: cmd/hioload-probe/main.go
// Package main
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// hioload-probe checks a running echo endpoint: greeting, echo
// round trips and, optionally, the server-side session teardown.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/momentics/hioload-echo/client"
	"github.com/momentics/hioload-echo/internal/shutdown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hioload-probe: %s\n", errors.ErrorStack(err))
		os.Exit(1)
	}
}

func run() error {
	cfg := client.DefaultProbeConfig("")
	flag.StringVar(&cfg.URL, "url", "ws://localhost:8080/ws", "echo endpoint")
	flag.IntVar(&cfg.Messages, "n", cfg.Messages, "round trips")
	flag.IntVar(&cfg.PayloadSize, "size", 0, "payload bytes, 0 for short text")
	flag.BoolVar(&cfg.Binary, "binary", false, "send binary frames")
	flag.DurationVar(&cfg.Interval, "interval", 0, "pause between round trips")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per read/write timeout")
	flag.BoolVar(&cfg.AwaitClose, "await-close", false, "wait for the server to end the session")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	coord := shutdown.Listen(log)
	defer coord.Stop()
	ctx, cancel := coord.Context(context.Background())
	defer cancel()

	log.WithFields(logrus.Fields{"url": cfg.URL, "messages": cfg.Messages}).Debug("probing")
	res, err := client.Probe(ctx, cfg)
	if err != nil {
		return errors.Annotate(err, "probe")
	}
	log.WithFields(logrus.Fields{
		"greeting": res.Greeting,
		"echoed":   res.Echoed,
		"max_rtt":  res.MaxRTT().String(),
		"notices":  res.Notices,
		"close":    res.CloseCode,
		"elapsed":  res.Elapsed.Round(time.Millisecond).String(),
	}).Info("probe ok")
	return nil
}
