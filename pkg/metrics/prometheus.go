package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "journal_forwarder"

// PrometheusSink records poll outcomes on a private registry
type PrometheusSink struct {
	registry *prometheus.Registry

	entriesForwarded *prometheus.CounterVec
	pollErrors       *prometheus.CounterVec
	lastPollTime     *prometheus.GaugeVec
	pollDuration     *prometheus.GaugeVec

	now func() time.Time
}

// NewPrometheusSink creates a sink with the forwarder metrics plus the Go
// runtime and process collectors registered
func NewPrometheusSink() *PrometheusSink {
	registry := prometheus.NewRegistry()

	s := &PrometheusSink{
		registry: registry,

		entriesForwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_forwarded_total",
				Help:      "Total journal entries forwarded",
			},
			[]string{"source"},
		),

		pollErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_errors_total",
				Help:      "Total poll errors",
			},
			[]string{"source", "error"},
		),

		lastPollTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_poll_timestamp_seconds",
				Help:      "Timestamp of last successful poll",
			},
			[]string{"source"},
		),

		pollDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "poll_duration_seconds",
				Help:      "Duration of last poll cycle",
			},
			[]string{"source"},
		),

		now: time.Now,
	}

	registry.MustRegister(
		s.entriesForwarded,
		s.pollErrors,
		s.lastPollTime,
		s.pollDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return s
}

// RecordForwarded implements Sink
func (s *PrometheusSink) RecordForwarded(source string, count int) {
	s.entriesForwarded.WithLabelValues(source).Add(float64(count))
}

// RecordError implements Sink
func (s *PrometheusSink) RecordError(source, kind string) {
	s.pollErrors.WithLabelValues(source, kind).Inc()
}

// RecordPoll implements Sink
func (s *PrometheusSink) RecordPoll(source string, d time.Duration) {
	s.lastPollTime.WithLabelValues(source).Set(float64(s.now().UnixMilli()) / 1000)
	s.pollDuration.WithLabelValues(source).Set(d.Seconds())
}

// Registry returns the registry backing this sink
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus exposition format
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Verify PrometheusSink implements Sink
var _ Sink = (*PrometheusSink)(nil)
