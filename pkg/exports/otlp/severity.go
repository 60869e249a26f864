package otlp

import (
	"go.opentelemetry.io/collector/pdata/plog"

	"github.com/yairfalse/journal-forwarder/pkg/domain"
)

// Severity is an OTLP severity number and its text
type Severity struct {
	Number plog.SeverityNumber
	Text   string
}

var (
	severityFatal       = Severity{Number: plog.SeverityNumberFatal, Text: "FATAL"}
	severityError       = Severity{Number: plog.SeverityNumberError, Text: "ERROR"}
	severityWarn        = Severity{Number: plog.SeverityNumberWarn, Text: "WARN"}
	severityInfo        = Severity{Number: plog.SeverityNumberInfo, Text: "INFO"}
	severityDebug       = Severity{Number: plog.SeverityNumberDebug, Text: "DEBUG"}
	severityUnspecified = Severity{Number: plog.SeverityNumberUnspecified, Text: "UNSPECIFIED"}
)

// MapPriority maps a syslog priority onto OTLP severity.
//
//	0 emerg, 1 alert  -> 21 FATAL
//	2 crit, 3 err     -> 17 ERROR
//	4 warning         -> 13 WARN
//	5 notice, 6 info  ->  9 INFO
//	7 debug           ->  5 DEBUG
//	unset             ->  0 UNSPECIFIED
func MapPriority(p domain.Priority) Severity {
	switch p {
	case domain.PriorityEmergency, domain.PriorityAlert:
		return severityFatal
	case domain.PriorityCritical, domain.PriorityError:
		return severityError
	case domain.PriorityWarning:
		return severityWarn
	case domain.PriorityNotice, domain.PriorityInfo:
		return severityInfo
	case domain.PriorityDebug:
		return severityDebug
	default:
		return severityUnspecified
	}
}
