package cli

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger maps the verbosity flags onto a zap logger:
// -q error, default and -v info, -vv debug, -vvv development mode
func newLogger(verbose int, quiet bool, format string) (*zap.Logger, error) {
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("unsupported log format %q: use console or json", format)
	}

	var cfg zap.Config
	if verbose >= 3 && !quiet {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.Sampling = nil
	}
	cfg.Encoding = format
	if format == "console" {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(logLevel(verbose, quiet))

	return cfg.Build()
}

func logLevel(verbose int, quiet bool) zapcore.Level {
	switch {
	case quiet:
		return zapcore.ErrorLevel
	case verbose >= 2:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
