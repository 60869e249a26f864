package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yairfalse/journal-forwarder/pkg/checkpoint"
	"github.com/yairfalse/journal-forwarder/pkg/collector"
	"github.com/yairfalse/journal-forwarder/pkg/collectors/journald"
	"github.com/yairfalse/journal-forwarder/pkg/config"
	"github.com/yairfalse/journal-forwarder/pkg/exports/otlp"
	"github.com/yairfalse/journal-forwarder/pkg/metrics"
	"github.com/yairfalse/journal-forwarder/pkg/shutdown"
	"github.com/yairfalse/journal-forwarder/pkg/version"
)

// cleanupTimeout bounds the metrics server shutdown
const cleanupTimeout = 10 * time.Second

func run(cmd *cobra.Command, opts *options) error {
	logger, err := newLogger(opts.verbose, opts.quiet, opts.logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.NewLoader().WithConfigFile(opts.configFile).Load()
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return err
	}

	if opts.validate {
		logger.Info("Configuration is valid")
		cfg.WriteSummary(cmd.OutOrStdout())
		return nil
	}

	handler := shutdown.NewHandler(cleanupTimeout, logger)
	ctx, cancel := handler.Context(cmd.Context())
	defer cancel()

	err = runForwarder(ctx, cfg, opts, handler, logger)
	if cleanupErr := handler.Cleanup(); err == nil {
		err = cleanupErr
	}
	if err != nil {
		logger.Error("Fatal error", zap.Error(err))
	}
	return err
}

// runForwarder wires every source and blocks until all collectors stop.
// Failures here happen before any polling starts and are fatal.
func runForwarder(ctx context.Context, cfg *config.Config, opts *options, handler *shutdown.Handler, logger *zap.Logger) error {
	logger.Info("Starting forwarder",
		zap.String("otlp_endpoint", cfg.OTLPEndpoint),
		zap.Int("sources", len(cfg.Sources)),
		zap.String("version", version.Version))

	var sink metrics.Sink = metrics.NopSink{}
	if opts.metricsAddr != "" {
		promSink := metrics.NewPrometheusSink()
		server := metrics.NewServer(opts.metricsAddr, promSink, logger)
		if err := server.Start(); err != nil {
			return err
		}
		handler.Register("metrics server", server.Shutdown)
		sink = promSink
	}

	publisher, err := otlp.NewPublisher(otlp.PublisherConfig{
		Endpoint:     cfg.OTLPEndpoint,
		Timeout:      cfg.RequestTimeout,
		Compression:  cfg.Compression,
		Headers:      cfg.OTLPHeaders,
		ScopeVersion: version.Version,
		UserAgent:    version.UserAgent(),
	}, logger)
	if err != nil {
		return err
	}

	manager := collector.NewManager(cfg.PollInterval, opts.once, logger)
	for _, source := range cfg.Sources {
		c, err := newSourceCollector(cfg, source, publisher, sink, logger)
		if err != nil {
			return err
		}
		if err := manager.Register(c); err != nil {
			return err
		}
	}

	return manager.Run(ctx)
}

func newSourceCollector(cfg *config.Config, source config.Source, publisher collector.Publisher, sink metrics.Sink, logger *zap.Logger) (*collector.Collector, error) {
	sourceLogger := logger.With(zap.String("source", source.Name))

	client, err := journald.NewClient(journald.ClientConfig{
		BaseURL:   source.URL,
		Units:     source.Units,
		Timeout:   cfg.RequestTimeout,
		UserAgent: version.UserAgent(),
	}, sourceLogger)
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.NewFileStore(cfg.CursorDir, source.Name, logger)
	if err != nil {
		return nil, err
	}

	return collector.New(collector.Config{
		Name:      source.Name,
		Labels:    source.Labels,
		BatchSize: cfg.BatchSize,
	}, client, publisher, store, sink, logger), nil
}
