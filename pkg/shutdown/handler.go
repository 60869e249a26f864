// Package shutdown turns termination signals into context cancellation and
// runs registered cleanups in reverse order.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type cleanup struct {
	name string
	fn   func(context.Context) error
}

// Handler manages graceful shutdown
type Handler struct {
	mu       sync.Mutex
	cleanups []cleanup
	timeout  time.Duration
	signals  []os.Signal
	logger   *zap.Logger
}

// NewHandler creates a handler listening for SIGINT and SIGTERM. timeout
// bounds Cleanup.
func NewHandler(timeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		timeout: timeout,
		signals: []os.Signal{
			os.Interrupt,    // Ctrl+C
			syscall.SIGTERM, // systemd stop
		},
		logger: logger,
	}
}

// WithSignals replaces the signals that trigger shutdown
func (h *Handler) WithSignals(signals ...os.Signal) *Handler {
	h.signals = signals
	return h
}

// Register adds a cleanup function. Cleanups run last-registered first.
func (h *Handler) Register(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, cleanup{name: name, fn: fn})
}

// Context returns a context cancelled by the first shutdown signal. After
// that signal the default handling is restored, so a second one terminates
// the process immediately.
func (h *Handler) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, h.signals...)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			h.logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Cleanup runs every registered cleanup in reverse order within the handler
// timeout and returns the joined errors
func (h *Handler) Cleanup() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	// Copy functions to avoid holding lock
	h.mu.Lock()
	fns := make([]cleanup, len(h.cleanups))
	copy(fns, h.cleanups)
	h.mu.Unlock()

	start := time.Now()
	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			h.logger.Warn("Shutdown timeout exceeded, some cleanup may be incomplete")
			errs = append(errs, ctx.Err())
			break
		}

		c := fns[i]
		if err := c.fn(ctx); err != nil {
			h.logger.Warn("Cleanup failed", zap.String("name", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		h.logger.Debug("Cleaned up", zap.String("name", c.name))
	}

	h.logger.Info("Shutdown completed",
		zap.Int("errors", len(errs)),
		zap.Duration("duration", time.Since(start)))
	return errors.Join(errs...)
}
