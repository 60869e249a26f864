// Package collector drives the per-source fetch, publish and checkpoint cycle.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yairfalse/journal-forwarder/pkg/collectors/journald"
	"github.com/yairfalse/journal-forwarder/pkg/domain"
	"github.com/yairfalse/journal-forwarder/pkg/metrics"
)

// Fetcher reads journal entries strictly after cursor
type Fetcher interface {
	Fetch(ctx context.Context, cursor string, limit int) ([]domain.JournalEntry, error)
}

// Publisher forwards one batch; success or failure covers the whole batch
type Publisher interface {
	Send(ctx context.Context, sourceName string, entries []domain.JournalEntry, labels map[string]string) error
}

// CheckpointStore persists the last forwarded cursor of one source
type CheckpointStore interface {
	Load() string
	Save(cursor string) error
	Reset() error
}

// Config describes one source
type Config struct {
	Name      string
	Labels    map[string]string
	BatchSize int
}

// CycleError is a failed poll cycle step. Kind is one of the metrics error
// kinds.
type CycleError struct {
	Kind string
	Err  error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// Outcome is the result of one poll cycle
type Outcome struct {
	// Forwarded is the number of entries the collector accepted
	Forwarded int
	// Err is a *CycleError when the cycle failed
	Err error
}

// Empty reports a successful cycle that found nothing new
func (o Outcome) Empty() bool {
	return o.Err == nil && o.Forwarded == 0
}

// Collector forwards journal entries of a single source. Poll must not be
// called concurrently; one goroutine owns each collector.
type Collector struct {
	config    Config
	fetcher   Fetcher
	publisher Publisher
	store     CheckpointStore
	sink      metrics.Sink
	logger    *zap.Logger
}

// New creates a collector for one source
func New(config Config, fetcher Fetcher, publisher Publisher, store CheckpointStore, sink metrics.Sink, logger *zap.Logger) *Collector {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		config:    config,
		fetcher:   fetcher,
		publisher: publisher,
		store:     store,
		sink:      sink,
		logger:    logger.With(zap.String("source", config.Name)),
	}
}

// Name returns the source name
func (c *Collector) Name() string {
	return c.config.Name
}

// Poll runs one cycle: load checkpoint, fetch, publish, and advance the
// checkpoint only after the collector accepted the batch. Requests already
// started are not cut short when ctx is cancelled; they finish or hit their
// own timeout.
func (c *Collector) Poll(ctx context.Context) Outcome {
	start := time.Now()
	reqCtx := context.WithoutCancel(ctx)

	cursor := c.store.Load()
	c.logger.Debug("Starting poll", zap.String("cursor", cursor))

	entries, err := c.fetcher.Fetch(reqCtx, cursor, c.config.BatchSize)
	if errors.Is(err, journald.ErrCursorInvalid) {
		c.logger.Warn("Cursor invalid (410 Gone), resetting to current boot")
		c.sink.RecordError(c.config.Name, metrics.ErrorKindInvalidCursor)

		if err := c.store.Reset(); err != nil {
			return c.fail(metrics.ErrorKindCheckpoint, 0, err)
		}
		entries, err = c.fetcher.Fetch(reqCtx, "", c.config.BatchSize)
	}
	if err != nil {
		return c.fail(fetchErrorKind(err), 0, err)
	}

	if len(entries) == 0 {
		c.logger.Debug("No new entries")
		c.sink.RecordPoll(c.config.Name, time.Since(start))
		return Outcome{}
	}

	count := len(entries)
	last := entries[count-1].Cursor

	c.logger.Debug("Fetched entries, forwarding to OTLP", zap.Int("count", count))

	if err := c.publisher.Send(reqCtx, c.config.Name, entries, c.config.Labels); err != nil {
		c.logger.Error("Failed to forward to OTLP, cursor not advanced", zap.Error(err))
		return c.fail(metrics.ErrorKindOTLP, 0, err)
	}
	c.sink.RecordForwarded(c.config.Name, count)

	if err := c.store.Save(last); err != nil {
		return c.fail(metrics.ErrorKindCheckpoint, count, err)
	}

	elapsed := time.Since(start)
	c.sink.RecordPoll(c.config.Name, elapsed)

	c.logger.Info("Forwarded entries",
		zap.Int("count", count),
		zap.Int64("duration_ms", elapsed.Milliseconds()))

	return Outcome{Forwarded: count}
}

func (c *Collector) fail(kind string, forwarded int, err error) Outcome {
	c.sink.RecordError(c.config.Name, kind)
	return Outcome{Forwarded: forwarded, Err: &CycleError{Kind: kind, Err: err}}
}

// fetchErrorKind classifies a fetch failure for metrics
func fetchErrorKind(err error) string {
	var transportErr *journald.TransportError
	var serverErr *journald.ServerError
	switch {
	case errors.Is(err, journald.ErrCursorInvalid):
		return metrics.ErrorKindInvalidCursor
	case errors.As(err, &transportErr):
		return metrics.ErrorKindHTTP
	case errors.As(err, &serverErr):
		return metrics.ErrorKindServer
	default:
		return metrics.ErrorKindParse
	}
}
