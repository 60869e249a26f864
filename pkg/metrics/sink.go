// Package metrics records per-source poll outcomes and exposes them to
// Prometheus.
package metrics

import (
	"time"
)

// Error kinds reported through Sink.RecordError
const (
	ErrorKindHTTP          = "http"
	ErrorKindServer        = "server"
	ErrorKindParse         = "parse"
	ErrorKindInvalidCursor = "invalid_cursor"
	ErrorKindOTLP          = "otlp"
	ErrorKindCheckpoint    = "checkpoint"
)

// Sink receives poll cycle outcomes. Implementations must be safe for
// concurrent use; every source goroutine shares one sink.
type Sink interface {
	// RecordForwarded adds count entries accepted by the collector
	RecordForwarded(source string, count int)
	// RecordError counts one failed cycle step of the given kind
	RecordError(source, kind string)
	// RecordPoll marks a completed cycle and its duration
	RecordPoll(source string, d time.Duration)
}

// NopSink discards everything
type NopSink struct{}

func (NopSink) RecordForwarded(string, int)      {}
func (NopSink) RecordError(string, string)       {}
func (NopSink) RecordPoll(string, time.Duration) {}

// Verify NopSink implements Sink
var _ Sink = NopSink{}
