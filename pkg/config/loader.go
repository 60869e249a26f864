package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes every environment override, e.g.
// JOURNAL_FORWARDER_OTLP_ENDPOINT
const DefaultEnvPrefix = "JOURNAL_FORWARDER"

// Loader reads the configuration file and merges environment overrides on
// top of it
type Loader struct {
	configFile string
	explicit   bool
	envPrefix  string
}

// NewLoader creates a loader for the default config path
func NewLoader() *Loader {
	return &Loader{
		configFile: DefaultConfigPath,
		envPrefix:  DefaultEnvPrefix,
	}
}

// WithConfigFile sets the configuration file to load. A missing file is an
// error unless it is the default path.
func (l *Loader) WithConfigFile(path string) *Loader {
	if path == "" {
		return l
	}
	l.configFile = path
	l.explicit = path != DefaultConfigPath
	return l
}

// WithEnvPrefix sets the environment variable prefix
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// ConfigFile returns the path the loader reads
func (l *Loader) ConfigFile() string {
	return l.configFile
}

// Load loads configuration in priority order:
// 1. Defaults
// 2. Configuration file (yaml or toml, by extension)
// 3. Environment variables
// and validates the result
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := l.readConfigFile(v); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, ConfigError{
			Type:    "decode",
			File:    v.ConfigFileUsed(),
			Message: fmt.Sprintf("failed to decode configuration: %v", err),
			Cause:   err,
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) readConfigFile(v *viper.Viper) error {
	if _, err := os.Stat(l.configFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !l.explicit {
				// Default path doesn't exist, use defaults
				return nil
			}
			return ConfigError{Type: "not_found", File: l.configFile,
				Message: "config file not found", Cause: err}
		}
		return ConfigError{Type: "read_error", File: l.configFile,
			Message: fmt.Sprintf("failed to read config file: %v", err), Cause: err}
	}

	v.SetConfigFile(l.configFile)
	if filepath.Ext(l.configFile) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return ConfigError{Type: "parse_error", File: l.configFile,
			Message: fmt.Sprintf("failed to parse config file: %v", err), Cause: err}
	}
	return nil
}

// setDefaults registers every scalar key so environment overrides apply to
// keys absent from the file
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("otlp_endpoint", "")
	v.SetDefault("poll_interval", defaults.PollInterval)
	v.SetDefault("batch_size", defaults.BatchSize)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("cursor_dir", defaults.CursorDir)
	v.SetDefault("compression", defaults.Compression)
}
