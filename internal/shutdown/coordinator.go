// File: internal/shutdown/coordinator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package shutdown

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/momentics/hioload-echo/api"
)

var _ api.ShutdownNotifier = (*Coordinator)(nil)

// Coordinator turns OS stop requests into a single broadcast.
type Coordinator struct {
	log     logrus.FieldLogger
	signals chan os.Signal
	done    chan struct{}
	stop    chan struct{}

	once     sync.Once
	stopOnce sync.Once
	mu       sync.Mutex
	sig      os.Signal
}

// Signals returns the stop signals watched on this platform.
func Signals() []os.Signal {
	return append([]os.Signal{os.Interrupt}, terminateSignals...)
}

// Listen installs the signal handlers and starts watching. The handlers
// stay installed after the first signal; call Stop to uninstall them.
func Listen(log logrus.FieldLogger) *Coordinator {
	c := newCoordinator(log)
	signal.Notify(c.signals, Signals()...)
	go c.watch()
	return c
}

func newCoordinator(log logrus.FieldLogger) *Coordinator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Coordinator{
		log:     log,
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
}

// watch keeps the handlers installed until Stop, so signals arriving
// after the first one are swallowed instead of killing the drain.
func (c *Coordinator) watch() {
	defer signal.Stop(c.signals)
	for {
		select {
		case sig := <-c.signals:
			select {
			case <-c.done:
				c.log.WithField("signal", sig.String()).Info("signal ignored, shutdown already in progress")
			default:
				c.Trigger(sig)
			}
		case <-c.stop:
			return
		}
	}
}

// Trigger resolves the coordinator. Only the first call has an effect.
func (c *Coordinator) Trigger(sig os.Signal) {
	c.once.Do(func() {
		c.mu.Lock()
		c.sig = sig
		c.mu.Unlock()
		name := "manual"
		if sig != nil {
			name = sig.String()
		}
		c.log.WithField("signal", name).Info("signal received, starting graceful shutdown")
		close(c.done)
	})
}

// Done is closed once shutdown was requested.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Signal returns the signal that resolved the coordinator, nil before that
// or after a manual Trigger(nil).
func (c *Coordinator) Signal() os.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sig
}

// Wait blocks until shutdown is requested or ctx ends.
func (c *Coordinator) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Context derives a context cancelled when shutdown is requested.
func (c *Coordinator) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Stop uninstalls the signal handlers without resolving.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
