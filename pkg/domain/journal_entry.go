package domain

// UnknownService is the service name used for entries without a systemd unit
const UnknownService = "unknown"

// Priority represents syslog priority levels
type Priority int

const (
	PriorityUnset     Priority = -1
	PriorityEmergency Priority = 0 // System is unusable
	PriorityAlert     Priority = 1 // Action must be taken immediately
	PriorityCritical  Priority = 2 // Critical conditions
	PriorityError     Priority = 3 // Error conditions
	PriorityWarning   Priority = 4 // Warning conditions
	PriorityNotice    Priority = 5 // Normal but significant condition
	PriorityInfo      Priority = 6 // Informational messages
	PriorityDebug     Priority = 7 // Debug-level messages
)

// Valid reports whether p is one of the eight syslog levels
func (p Priority) Valid() bool {
	return p >= PriorityEmergency && p <= PriorityDebug
}

// String returns the string representation of the priority
func (p Priority) String() string {
	switch p {
	case PriorityEmergency:
		return "emergency"
	case PriorityAlert:
		return "alert"
	case PriorityCritical:
		return "critical"
	case PriorityError:
		return "error"
	case PriorityWarning:
		return "warning"
	case PriorityNotice:
		return "notice"
	case PriorityInfo:
		return "info"
	case PriorityDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// JournalEntry is a journal record normalized from one line of a gatewayd
// response. Optional string fields are empty when the source omitted them.
type JournalEntry struct {
	// Cursor is opaque and only ordered within one source and boot
	Cursor string

	// RealtimeTimestamp is microseconds since the Unix epoch
	RealtimeTimestamp uint64

	// MonotonicTimestamp is microseconds since boot, nil when absent
	MonotonicTimestamp *uint64

	BootID   string
	Message  string
	Priority Priority

	SystemdUnit      string
	SyslogIdentifier string

	// Process information
	PID  string
	UID  string
	GID  string
	Comm string
	Exe  string

	// Host information
	MachineID string
	Hostname  string

	// ExtraFields holds every field without a dedicated attribute
	ExtraFields map[string]string
}

// HasPriority reports whether the entry carried a usable PRIORITY field
func (e *JournalEntry) HasPriority() bool {
	return e.Priority.Valid()
}

// ServiceName returns the systemd unit, or UnknownService when absent
func (e *JournalEntry) ServiceName() string {
	if e.SystemdUnit == "" {
		return UnknownService
	}
	return e.SystemdUnit
}
