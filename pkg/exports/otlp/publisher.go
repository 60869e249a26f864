package otlp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.opentelemetry.io/collector/pdata/plog/plogotlp"
	"go.uber.org/zap"

	"github.com/yairfalse/journal-forwarder/pkg/domain"
)

// Publisher posts journal batches to an OTLP/HTTP collector as JSON
type Publisher struct {
	endpoint   string
	config     PublisherConfig
	httpClient *http.Client
	logger     *zap.Logger

	// Counters (atomic access required)
	exportsTotal   atomic.Int64
	exportsFailed  atomic.Int64
	recordsTotal   atomic.Int64
	lastExportTime atomic.Value // stores time.Time
}

// Stats is a snapshot of publisher counters
type Stats struct {
	ExportsTotal   int64
	ExportsFailed  int64
	RecordsTotal   int64
	LastExportTime time.Time
}

// NewPublisher creates a publisher for {endpoint}/v1/logs
func NewPublisher(config PublisherConfig, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimRight(config.Endpoint, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid OTLP endpoint %q: %w", config.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid OTLP endpoint %q: scheme must be http or https", config.Endpoint)
	}

	switch config.Compression {
	case "":
		config.Compression = CompressionNone
	case CompressionNone, CompressionGzip:
	default:
		return nil, fmt.Errorf("unsupported OTLP compression %q", config.Compression)
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	p := &Publisher{
		endpoint:   base + LogsPath,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}

	logger.Info("OTLP/HTTP publisher created",
		zap.String("endpoint", p.endpoint),
		zap.String("compression", config.Compression),
		zap.Duration("timeout", config.Timeout))

	return p, nil
}

// Endpoint returns the full export URL
func (p *Publisher) Endpoint() string {
	return p.endpoint
}

// Send publishes the whole batch in one request. An empty batch is a no-op.
// Any non-2xx response rejects the entire batch.
func (p *Publisher) Send(ctx context.Context, sourceName string, entries []domain.JournalEntry, labels map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	logs := BuildLogs(sourceName, entries, labels, time.Now(), p.config.ScopeVersion)
	payload, err := plogotlp.NewExportRequestFromLogs(logs).MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode OTLP payload: %w", err)
	}

	body, err := p.encodeBody(payload)
	if err != nil {
		return fmt.Errorf("failed to compress OTLP payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build OTLP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}
	if p.config.Compression == CompressionGzip {
		req.Header.Set("Content-Encoding", "gzip")
	}
	for k, v := range p.config.Headers {
		req.Header.Set(k, v)
	}

	p.logger.Debug("Sending OTLP logs",
		zap.String("source", sourceName),
		zap.Int("records", len(entries)),
		zap.Int("bytes", len(body)))

	p.exportsTotal.Add(1)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.exportsFailed.Add(1)
		return &TransportError{URL: p.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.exportsFailed.Add(1)
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		p.logger.Warn("OTLP endpoint rejected request",
			zap.String("source", sourceName),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", text))
		return &PublishError{StatusCode: resp.StatusCode, Body: string(text)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	p.recordsTotal.Add(int64(len(entries)))
	p.lastExportTime.Store(time.Now())

	p.logger.Debug("Sent logs to OTLP endpoint",
		zap.String("source", sourceName),
		zap.Int("records", len(entries)))
	return nil
}

// Stats returns the publisher counters
func (p *Publisher) Stats() Stats {
	stats := Stats{
		ExportsTotal:  p.exportsTotal.Load(),
		ExportsFailed: p.exportsFailed.Load(),
		RecordsTotal:  p.recordsTotal.Load(),
	}
	if t, ok := p.lastExportTime.Load().(time.Time); ok {
		stats.LastExportTime = t
	}
	return stats
}

func (p *Publisher) encodeBody(payload []byte) ([]byte, error) {
	if p.config.Compression != CompressionGzip {
		return payload, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
