package journald

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/yairfalse/journal-forwarder/pkg/domain"
)

// maxLoggedLineLen caps how much of a rejected line ends up in the log
const maxLoggedLineLen = 100

var parserPool fastjson.ParserPool

// ParseEntries decodes a newline-delimited JSON response body. Each line is
// parsed on its own; malformed lines are logged and skipped so one bad record
// never fails the batch. Source order is preserved.
func ParseEntries(body []byte, logger *zap.Logger) []domain.JournalEntry {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := parserPool.Get()
	defer parserPool.Put(p)

	var entries []domain.JournalEntry
	for _, line := range bytes.Split(body, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		entry, err := parseLine(p, line)
		if err != nil {
			logger.Warn("Failed to parse journal entry, skipping",
				zap.Error(err),
				zap.String("line", truncateLine(line)))
			continue
		}
		entries = append(entries, entry)
	}

	logger.Debug("Parsed journal entries", zap.Int("count", len(entries)))
	return entries
}

// ParseLine decodes a single JSON journal record
func ParseLine(line []byte) (domain.JournalEntry, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)
	return parseLine(p, line)
}

func parseLine(p *fastjson.Parser, line []byte) (domain.JournalEntry, error) {
	v, err := p.ParseBytes(line)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	obj, err := v.Object()
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("journal entry is not a JSON object: %w", err)
	}

	cursor, ok := stringField(obj, FieldCursor)
	if !ok {
		return domain.JournalEntry{}, fmt.Errorf("missing field %s", FieldCursor)
	}
	realtime, ok := stringField(obj, FieldRealtimeTimestamp)
	if !ok {
		return domain.JournalEntry{}, fmt.Errorf("missing field %s", FieldRealtimeTimestamp)
	}

	entry := domain.JournalEntry{
		Cursor:   cursor,
		Priority: domain.PriorityUnset,
	}
	// Unparsable timestamps degrade to zero rather than dropping the record
	entry.RealtimeTimestamp, _ = strconv.ParseUint(realtime, 10, 64)

	obj.Visit(func(key []byte, value *fastjson.Value) {
		name := string(key)
		switch name {
		case FieldCursor, FieldRealtimeTimestamp:
		case FieldMonotonicTimestamp:
			if ts, err := strconv.ParseUint(textValue(value), 10, 64); err == nil {
				entry.MonotonicTimestamp = &ts
			}
		case FieldMessage:
			entry.Message = messageValue(value)
		case FieldPriority:
			entry.Priority = parsePriority(textValue(value))
		case FieldBootID:
			entry.BootID = textValue(value)
		case FieldSystemdUnit:
			entry.SystemdUnit = textValue(value)
		case FieldIdentifier:
			entry.SyslogIdentifier = textValue(value)
		case FieldProcessPID:
			entry.PID = textValue(value)
		case FieldProcessUID:
			entry.UID = textValue(value)
		case FieldProcessGID:
			entry.GID = textValue(value)
		case FieldProcessComm:
			entry.Comm = textValue(value)
		case FieldProcessExe:
			entry.Exe = textValue(value)
		case FieldMachineID:
			entry.MachineID = textValue(value)
		case FieldHostname:
			entry.Hostname = textValue(value)
		default:
			if !isExtraField(name) {
				return
			}
			if entry.ExtraFields == nil {
				entry.ExtraFields = make(map[string]string)
			}
			entry.ExtraFields[name] = textValue(value)
		}
	})

	return entry, nil
}

func stringField(obj *fastjson.Object, key string) (string, bool) {
	v := obj.Get(key)
	if v == nil || v.Type() != fastjson.TypeString {
		return "", false
	}
	b, err := v.StringBytes()
	if err != nil {
		return "", false
	}
	return string(b), true
}

// parsePriority accepts only the syslog range 0-7
func parsePriority(s string) domain.Priority {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return domain.PriorityUnset
	}
	p := domain.Priority(n)
	if !p.Valid() {
		return domain.PriorityUnset
	}
	return p
}

// messageValue handles MESSAGE as either a string or an array of byte values.
// Any other shape yields an empty message.
func messageValue(v *fastjson.Value) string {
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeArray:
		b, _ := byteArray(v)
		return DecodeLossy(b)
	default:
		return ""
	}
}

// textValue renders a field value as a string: strings verbatim, byte arrays
// decoded lossily, every other JSON shape as compact JSON text.
func textValue(v *fastjson.Value) string {
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeArray:
		if b, ok := byteArray(v); ok {
			return DecodeLossy(b)
		}
	}
	return v.String()
}

// byteArray collects the 0-255 numeric elements of a JSON array. ok is false
// when any element is not a byte value; those elements are skipped.
func byteArray(v *fastjson.Value) ([]byte, bool) {
	items, err := v.Array()
	if err != nil {
		return nil, false
	}
	ok := true
	out := make([]byte, 0, len(items))
	for _, item := range items {
		if item.Type() != fastjson.TypeNumber {
			ok = false
			continue
		}
		n, err := item.Uint()
		if err != nil || n > 255 {
			ok = false
			continue
		}
		out = append(out, byte(n))
	}
	return out, ok
}

// DecodeLossy converts b to a string, replacing each maximal invalid subpart
// with a single U+FFFD. A truncated multi-byte sequence therefore becomes one
// replacement character, not one per byte.
func DecodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + utf8.UTFMax)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[invalidSubpartLen(b):]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}
	return sb.String()
}

// invalidSubpartLen returns how many bytes at the start of b form the longest
// prefix of a well-formed sequence that was cut short. It is at least 1.
func invalidSubpartLen(b []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	var n int
	switch lead := b[0]; {
	case lead >= 0xC2 && lead <= 0xDF:
		n = 2
	case lead == 0xE0:
		n, lo = 3, 0xA0
	case lead == 0xED:
		n, hi = 3, 0x9F
	case lead >= 0xE1 && lead <= 0xEF:
		n = 3
	case lead == 0xF0:
		n, lo = 4, 0x90
	case lead >= 0xF1 && lead <= 0xF3:
		n = 4
	case lead == 0xF4:
		n, hi = 4, 0x8F
	default:
		return 1
	}

	i := 1
	for ; i < n && i < len(b); i++ {
		if b[i] < lo || b[i] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return i
}

func truncateLine(line []byte) string {
	if len(line) <= maxLoggedLineLen {
		return string(line)
	}
	return string(line[:maxLoggedLineLen])
}
