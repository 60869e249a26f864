package otlp

import (
	"fmt"
)

// maxErrorBody caps how much of a rejected response is kept
const maxErrorBody = 1 << 10

// PublishError is returned when the collector answers with a non-2xx status.
// The whole batch is considered rejected.
type PublishError struct {
	StatusCode int
	Body       string
}

func (e *PublishError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("OTLP endpoint rejected request: status %d", e.StatusCode)
	}
	return fmt.Sprintf("OTLP endpoint rejected request: status %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps network failures reaching the collector
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("OTLP POST %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
