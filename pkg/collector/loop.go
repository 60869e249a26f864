package collector

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run polls every interval until ctx is cancelled. Cycle errors are logged and
// retried at the same interval, never backed off. With once set, exactly one
// cycle runs.
func (c *Collector) Run(ctx context.Context, interval time.Duration, once bool) {
	c.logger.Info("Collector started", zap.Duration("interval", interval))
	defer c.logger.Info("Collector stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		outcome := c.Poll(ctx)
		if outcome.Err != nil {
			c.logger.Warn("Poll failed, will retry", zap.Error(outcome.Err))
		} else {
			c.logger.Debug("Poll completed", zap.Int("count", outcome.Forwarded))
		}

		if once {
			c.logger.Debug("Once mode, exiting")
			return
		}

		if !wait(ctx, interval) {
			return
		}
	}
}

// wait sleeps for d and reports false if ctx was cancelled first
func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
