package config

import (
	"fmt"
	"io"
	"time"
)

// Defaults
const (
	DefaultConfigPath     = "/etc/journal-forwarder/config.yaml"
	DefaultCursorDir      = "/var/lib/journal-forwarder"
	DefaultPollInterval   = 5 * time.Second
	DefaultBatchSize      = 500
	DefaultRequestTimeout = 30 * time.Second
	DefaultCompression    = "none"
)

// Config represents the forwarder configuration
type Config struct {
	// OTLPEndpoint is the collector base URL; /v1/logs is appended
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`

	// Polling
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	BatchSize      int           `mapstructure:"batch_size" yaml:"batch_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// CursorDir holds one checkpoint file per source
	CursorDir string `mapstructure:"cursor_dir" yaml:"cursor_dir"`

	// Export options
	Compression string            `mapstructure:"compression" yaml:"compression"`
	OTLPHeaders map[string]string `mapstructure:"otlp_headers" yaml:"otlp_headers"`

	Sources []Source `mapstructure:"sources" yaml:"sources"`
}

// Source is one gatewayd endpoint to pull from
type Source struct {
	// Name identifies the source; it keys the checkpoint file and becomes host.name
	Name string `mapstructure:"name" yaml:"name"`
	// URL is the gatewayd base URL, e.g. http://host:19531
	URL string `mapstructure:"url" yaml:"url"`
	// Units restricts the source to these systemd units
	Units []string `mapstructure:"units" yaml:"units"`
	// Labels are added to every exported resource
	Labels map[string]string `mapstructure:"labels" yaml:"labels"`
}

// DefaultConfig returns a configuration with every default applied and no
// endpoint or sources
func DefaultConfig() *Config {
	return &Config{
		PollInterval:   DefaultPollInterval,
		BatchSize:      DefaultBatchSize,
		RequestTimeout: DefaultRequestTimeout,
		CursorDir:      DefaultCursorDir,
		Compression:    DefaultCompression,
	}
}

// WriteSummary prints the validated configuration in human readable form
func (c *Config) WriteSummary(w io.Writer) {
	fmt.Fprintln(w, "Configuration validated successfully:")
	fmt.Fprintf(w, "  OTLP endpoint: %s\n", c.OTLPEndpoint)
	fmt.Fprintf(w, "  Poll interval: %s\n", c.PollInterval)
	fmt.Fprintf(w, "  Batch size: %d\n", c.BatchSize)
	fmt.Fprintf(w, "  Request timeout: %s\n", c.RequestTimeout)
	fmt.Fprintf(w, "  Compression: %s\n", c.Compression)
	fmt.Fprintf(w, "  Cursor dir: %s\n", c.CursorDir)
	fmt.Fprintf(w, "  Sources: %d\n", len(c.Sources))
	for _, source := range c.Sources {
		fmt.Fprintf(w, "    - %s (%s)\n", source.Name, source.URL)
	}
}
