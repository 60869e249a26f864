package config

import (
	"fmt"
	"net/url"

	"github.com/yairfalse/journal-forwarder/pkg/checkpoint"
)

// Validate checks the configuration and returns ValidationErrors listing
// every problem, or nil
func (c *Config) Validate() error {
	var errs []ValidationError

	if c.OTLPEndpoint == "" {
		errs = append(errs, NewValidationError("otlp_endpoint", "is required",
			"set otlp_endpoint in the config file or JOURNAL_FORWARDER_OTLP_ENDPOINT"))
	} else if !isHTTPURL(c.OTLPEndpoint) {
		errs = append(errs, NewValidationError("otlp_endpoint", "must be a valid HTTP(S) URL",
			"e.g. http://otel-collector:4318"))
	}

	if c.PollInterval <= 0 {
		errs = append(errs, NewValidationError("poll_interval", "must be positive", "e.g. 5s"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, NewValidationError("batch_size", "must be a positive integer", "e.g. 500"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, NewValidationError("request_timeout", "must be positive", "e.g. 30s"))
	}
	if c.CursorDir == "" {
		errs = append(errs, NewValidationError("cursor_dir", "is required", DefaultCursorDir))
	}
	switch c.Compression {
	case "none", "gzip":
	default:
		errs = append(errs, NewValidationError("compression",
			fmt.Sprintf("unsupported value %q", c.Compression), "use none or gzip"))
	}

	if len(c.Sources) == 0 {
		errs = append(errs, NewValidationError("sources", "no sources configured",
			"add at least one [[sources]] entry with name and url"))
	}

	seen := make(map[string]bool, len(c.Sources))
	files := make(map[string]string, len(c.Sources))
	for i, source := range c.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		file := checkpoint.FileName(source.Name)
		switch {
		case source.Name == "":
			errs = append(errs, NewValidationError(field+".name", "cannot be empty", ""))
		case seen[source.Name]:
			errs = append(errs, NewValidationError(field+".name",
				fmt.Sprintf("duplicate source name %q", source.Name),
				"source names key the checkpoint files and must be unique"))
		case files[file] != "":
			errs = append(errs, NewValidationError(field+".name",
				fmt.Sprintf("source %q shares checkpoint file %s with %q", source.Name, file, files[file]),
				"rename one of the sources"))
		default:
			files[file] = source.Name
		}
		seen[source.Name] = true

		if !isHTTPURL(source.URL) {
			errs = append(errs, NewValidationError(field+".url",
				fmt.Sprintf("invalid URL for source '%s': must be HTTP(S)", source.Name),
				"e.g. http://host:19531"))
		}
	}

	if len(errs) > 0 {
		return ValidationErrors{Errors: errs}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
