package journald

import (
	"strings"
	"time"
)

// DefaultRequestTimeout bounds a single gatewayd request
const DefaultRequestTimeout = 30 * time.Second

// Journal field names as emitted by systemd-journal-gatewayd in JSON mode
const (
	// Message fields
	FieldMessage    = "MESSAGE"
	FieldPriority   = "PRIORITY"
	FieldIdentifier = "SYSLOG_IDENTIFIER"

	// Process fields
	FieldProcessPID  = "_PID"
	FieldProcessUID  = "_UID"
	FieldProcessGID  = "_GID"
	FieldProcessComm = "_COMM"
	FieldProcessExe  = "_EXE"

	// System fields
	FieldHostname  = "_HOSTNAME"
	FieldMachineID = "_MACHINE_ID"
	FieldBootID    = "_BOOT_ID"

	// systemd fields
	FieldSystemdUnit = "_SYSTEMD_UNIT"

	// Timing fields
	FieldRealtimeTimestamp  = "__REALTIME_TIMESTAMP"
	FieldMonotonicTimestamp = "__MONOTONIC_TIMESTAMP"

	// Cursor and position
	FieldCursor = "__CURSOR"
)

// internalFieldPrefix marks gatewayd address fields (cursor, timestamps).
// They never appear in ExtraFields.
const internalFieldPrefix = "__"

// canonicalFields have a dedicated JournalEntry attribute
var canonicalFields = map[string]struct{}{
	FieldCursor:             {},
	FieldRealtimeTimestamp:  {},
	FieldMonotonicTimestamp: {},
	FieldBootID:             {},
	FieldMessage:            {},
	FieldPriority:           {},
	FieldSystemdUnit:        {},
	FieldIdentifier:         {},
	FieldProcessPID:         {},
	FieldProcessUID:         {},
	FieldProcessGID:         {},
	FieldProcessComm:        {},
	FieldProcessExe:         {},
	FieldMachineID:          {},
	FieldHostname:           {},
}

// isExtraField reports whether key belongs in JournalEntry.ExtraFields
func isExtraField(key string) bool {
	if strings.HasPrefix(key, internalFieldPrefix) {
		return false
	}
	_, canonical := canonicalFields[key]
	return !canonical
}
