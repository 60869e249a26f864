package otlp

import (
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/plog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/yairfalse/journal-forwarder/pkg/domain"
)

// ScopeName identifies this forwarder as the instrumentation scope
const ScopeName = "journal-forwarder"

// Record attribute keys with no semantic convention equivalent
const (
	AttrSyslogIdentifier = "syslog.identifier"
	AttrBootID           = "systemd.boot_id"
	AttrCursor           = "systemd.cursor"
)

// BuildLogs converts one fetched batch into an OTLP log document. Entries are
// grouped by service in first-seen order; each group becomes a ResourceLogs
// carrying the host identity, the service name and every label. observed is
// stamped on every record as the observed timestamp.
func BuildLogs(sourceName string, entries []domain.JournalEntry, labels map[string]string, observed time.Time, scopeVersion string) plog.Logs {
	logs := plog.NewLogs()
	if len(entries) == 0 {
		return logs
	}

	labelKeys := sortedKeys(labels)
	observedTS := pcommon.NewTimestampFromTime(observed)
	groups := make(map[string]plog.LogRecordSlice)

	for i := range entries {
		entry := &entries[i]
		service := entry.ServiceName()

		records, ok := groups[service]
		if !ok {
			rl := logs.ResourceLogs().AppendEmpty()
			attrs := rl.Resource().Attributes()
			attrs.PutStr(string(semconv.HostNameKey), sourceName)
			attrs.PutStr(string(semconv.ServiceNameKey), service)
			attrs.PutStr(string(semconv.OSTypeKey), semconv.OSTypeLinux.Value.AsString())
			for _, key := range labelKeys {
				attrs.PutStr(key, labels[key])
			}

			sl := rl.ScopeLogs().AppendEmpty()
			sl.Scope().SetName(ScopeName)
			sl.Scope().SetVersion(scopeVersion)

			records = sl.LogRecords()
			groups[service] = records
		}

		fillRecord(records.AppendEmpty(), entry, observedTS)
	}

	return logs
}

func fillRecord(record plog.LogRecord, entry *domain.JournalEntry, observed pcommon.Timestamp) {
	record.SetTimestamp(pcommon.Timestamp(entry.RealtimeTimestamp * uint64(time.Microsecond)))
	record.SetObservedTimestamp(observed)

	severity := MapPriority(entry.Priority)
	record.SetSeverityNumber(severity.Number)
	record.SetSeverityText(severity.Text)
	record.Body().SetStr(entry.Message)

	attrs := record.Attributes()
	putOptional(attrs, string(semconv.ProcessPIDKey), entry.PID)
	putOptional(attrs, string(semconv.ProcessOwnerKey), entry.UID)
	putOptional(attrs, string(semconv.ProcessCommandKey), entry.Comm)
	putOptional(attrs, string(semconv.ProcessExecutablePathKey), entry.Exe)
	putOptional(attrs, AttrSyslogIdentifier, entry.SyslogIdentifier)
	putOptional(attrs, AttrBootID, entry.BootID)
	attrs.PutStr(AttrCursor, entry.Cursor)

	for _, key := range sortedKeys(entry.ExtraFields) {
		attrs.PutStr(AttributeKey(key), entry.ExtraFields[key])
	}
}

func putOptional(attrs pcommon.Map, key, value string) {
	if value != "" {
		attrs.PutStr(key, value)
	}
}

// AttributeKey rewrites a journal field name into the dotted lower-case
// attribute convention, e.g. CODE_FILE -> code.file
func AttributeKey(field string) string {
	return strings.ReplaceAll(strings.ToLower(field), "_", ".")
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
