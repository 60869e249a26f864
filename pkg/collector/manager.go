package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manager runs one collector per source, each in its own goroutine. Sources
// share nothing but the metrics sink.
type Manager struct {
	collectors []*Collector
	interval   time.Duration
	once       bool
	logger     *zap.Logger
}

// NewManager creates a manager polling every interval
func NewManager(interval time.Duration, once bool, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		interval: interval,
		once:     once,
		logger:   logger,
	}
}

// Register adds a collector. Names must be unique.
func (m *Manager) Register(c *Collector) error {
	for _, existing := range m.collectors {
		if existing.Name() == c.Name() {
			return fmt.Errorf("collector %s already registered", c.Name())
		}
	}
	m.collectors = append(m.collectors, c)
	return nil
}

// Collectors returns the registered collectors in registration order
func (m *Manager) Collectors() []*Collector {
	return m.collectors
}

// Run starts every collector and blocks until all of them have stopped,
// either because ctx was cancelled or, in once mode, after one cycle each.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("Starting collectors",
		zap.Int("sources", len(m.collectors)),
		zap.Duration("interval", m.interval),
		zap.Bool("once", m.once))

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range m.collectors {
		c := c
		g.Go(func() error {
			c.Run(gctx, m.interval, m.once)
			return nil
		})
	}

	err := g.Wait()
	m.logger.Info("All collectors stopped")
	return err
}
