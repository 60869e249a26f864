package journald

import (
	"errors"
	"fmt"
)

// ErrCursorInvalid is returned when gatewayd answers 410 Gone: the cursor
// points into a rotated or vacuumed part of the journal.
var ErrCursorInvalid = errors.New("cursor is no longer valid (410 Gone)")

// ServerError is returned for any response status other than 200, 204 and 410
type ServerError struct {
	StatusCode int
	Status     string
}

func (e *ServerError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gatewayd server error: %s", e.Status)
	}
	return fmt.Sprintf("gatewayd server error: status %d", e.StatusCode)
}

// TransportError wraps network and I/O failures talking to gatewayd
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gatewayd %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
