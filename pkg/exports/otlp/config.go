package otlp

import (
	"time"
)

// Compression values accepted by PublisherConfig
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
)

// DefaultTimeout bounds a single export request
const DefaultTimeout = 30 * time.Second

// LogsPath is appended to the configured collector endpoint
const LogsPath = "/v1/logs"

// PublisherConfig configures the OTLP/HTTP log publisher
type PublisherConfig struct {
	// Endpoint is the collector base URL, e.g. http://otel-collector:4318
	Endpoint string
	// Timeout bounds each export request; zero means DefaultTimeout
	Timeout time.Duration
	// Compression is "none" (default) or "gzip"
	Compression string
	// Headers are sent with every request, e.g. authentication tokens
	Headers map[string]string
	// ScopeVersion is reported as the instrumentation scope version
	ScopeVersion string
	// UserAgent is sent when set
	UserAgent string
}
