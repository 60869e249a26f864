package journald

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yairfalse/journal-forwarder/pkg/domain"
)

func TestParseLine(t *testing.T) {
	t.Run("canonical fields", func(t *testing.T) {
		line := `{"__CURSOR":"s=abc;i=1","__REALTIME_TIMESTAMP":"1703456789000000","__MONOTONIC_TIMESTAMP":"12345","_BOOT_ID":"boot123","MESSAGE":"Hello world","PRIORITY":"6","_SYSTEMD_UNIT":"test.service","SYSLOG_IDENTIFIER":"test","_PID":"42","_UID":"1000","_GID":"1000","_COMM":"testd","_EXE":"/usr/bin/testd","_MACHINE_ID":"m1","_HOSTNAME":"host-01"}`

		entry, err := ParseLine([]byte(line))
		require.NoError(t, err)

		assert.Equal(t, "s=abc;i=1", entry.Cursor)
		assert.Equal(t, uint64(1703456789000000), entry.RealtimeTimestamp)
		require.NotNil(t, entry.MonotonicTimestamp)
		assert.Equal(t, uint64(12345), *entry.MonotonicTimestamp)
		assert.Equal(t, "boot123", entry.BootID)
		assert.Equal(t, "Hello world", entry.Message)
		assert.Equal(t, domain.PriorityInfo, entry.Priority)
		assert.Equal(t, "test.service", entry.SystemdUnit)
		assert.Equal(t, "test", entry.SyslogIdentifier)
		assert.Equal(t, "42", entry.PID)
		assert.Equal(t, "1000", entry.UID)
		assert.Equal(t, "1000", entry.GID)
		assert.Equal(t, "testd", entry.Comm)
		assert.Equal(t, "/usr/bin/testd", entry.Exe)
		assert.Equal(t, "m1", entry.MachineID)
		assert.Equal(t, "host-01", entry.Hostname)
		assert.Empty(t, entry.ExtraFields)
	})

	t.Run("binary message", func(t *testing.T) {
		line := `{"__CURSOR":"c","__REALTIME_TIMESTAMP":"1","MESSAGE":[72,101,108,108,111]}`

		entry, err := ParseLine([]byte(line))
		require.NoError(t, err)
		assert.Equal(t, "Hello", entry.Message)
	})

	t.Run("binary message with invalid utf8", func(t *testing.T) {
		line := `{"__CURSOR":"c","__REALTIME_TIMESTAMP":"1","MESSAGE":[104,105,255,33]}`

		entry, err := ParseLine([]byte(line))
		require.NoError(t, err)
		assert.Equal(t, "hi�!", entry.Message)
	})

	t.Run("missing message is empty", func(t *testing.T) {
		entry, err := ParseLine([]byte(`{"__CURSOR":"c","__REALTIME_TIMESTAMP":"1"}`))
		require.NoError(t, err)
		assert.Equal(t, "", entry.Message)
		assert.Nil(t, entry.MonotonicTimestamp)
	})

	t.Run("unparsable timestamp degrades to zero", func(t *testing.T) {
		entry, err := ParseLine([]byte(`{"__CURSOR":"c","__REALTIME_TIMESTAMP":"soon"}`))
		require.NoError(t, err)
		assert.Zero(t, entry.RealtimeTimestamp)
	})

	t.Run("missing cursor is rejected", func(t *testing.T) {
		_, err := ParseLine([]byte(`{"__REALTIME_TIMESTAMP":"1","MESSAGE":"x"}`))
		assert.Error(t, err)
	})

	t.Run("missing realtime timestamp is rejected", func(t *testing.T) {
		_, err := ParseLine([]byte(`{"__CURSOR":"c","MESSAGE":"x"}`))
		assert.Error(t, err)
	})

	t.Run("non-object is rejected", func(t *testing.T) {
		_, err := ParseLine([]byte(`[1,2,3]`))
		assert.Error(t, err)
	})
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Priority
	}{
		{"0", domain.PriorityEmergency},
		{"3", domain.PriorityError},
		{"7", domain.PriorityDebug},
		{"8", domain.PriorityUnset},
		{"-1", domain.PriorityUnset},
		{"300", domain.PriorityUnset},
		{"warning", domain.PriorityUnset},
		{"", domain.PriorityUnset},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePriority(tt.in))
		})
	}
}

func TestExtraFields(t *testing.T) {
	line := `{"__CURSOR":"c","__REALTIME_TIMESTAMP":"1","__SEQNUM":"9","MESSAGE":"m","PRIORITY":"4","_SYSTEMD_UNIT":"u.service","_TRANSPORT":"journal","CODE_LINE":12,"BLOB":[0,65,66],"TAGS":["a","b"],"OBJ":{"k":true},"FLAG":null}`

	entry, err := ParseLine([]byte(line))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"_TRANSPORT": "journal",
		"CODE_LINE":  "12",
		"BLOB":       "\x00AB",
		"TAGS":       `["a","b"]`,
		"OBJ":        `{"k":true}`,
		"FLAG":       "null",
	}, entry.ExtraFields)

	for key := range entry.ExtraFields {
		assert.NotContains(t, []string{FieldCursor, FieldMessage, FieldPriority, FieldSystemdUnit, "__SEQNUM"}, key)
	}
}

func TestParseEntriesSkipsMalformedLines(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	body := []byte(`{"__CURSOR":"c1","__REALTIME_TIMESTAMP":"1","MESSAGE":"one"}
{"__CURSOR":"c2", this is not json
{"__CURSOR":"c3","__REALTIME_TIMESTAMP":"3","MESSAGE":"three"}
`)

	entries := ParseEntries(body, logger)

	require.Len(t, entries, 2)
	assert.Equal(t, "c1", entries[0].Cursor)
	assert.Equal(t, "c3", entries[1].Cursor)
	assert.Equal(t, 1, logs.FilterMessage("Failed to parse journal entry, skipping").Len())
}

func TestParseEntriesPreservesOrderAndSkipsBlankLines(t *testing.T) {
	body := []byte("\n" +
		`{"__CURSOR":"c3","__REALTIME_TIMESTAMP":"3"}` + "\r\n" +
		"   \n" +
		`{"__CURSOR":"c1","__REALTIME_TIMESTAMP":"1"}` + "\n" +
		`{"__CURSOR":"c2","__REALTIME_TIMESTAMP":"2"}`)

	entries := ParseEntries(body, nil)

	require.Len(t, entries, 3)
	assert.Equal(t, []string{"c3", "c1", "c2"}, []string{entries[0].Cursor, entries[1].Cursor, entries[2].Cursor})
}

func TestDecodeLossy(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain ascii", []byte("plain ascii"), "plain ascii"},
		{"valid multibyte", []byte("h\xc3\xa9llo"), "héllo"},
		{"empty", []byte{}, ""},
		{"lone invalid bytes", []byte{0xff, 0xfe, 0x41}, "\uFFFD\uFFFDA"},
		{"truncated sequence between ascii", []byte{'a', 0xe2, 0x82, 'b'}, "a\uFFFDb"},
		{"truncated sequence at end", []byte{0xe2, 0x82}, "\uFFFD"},
		{"truncated four byte sequence", []byte{0xf0, 0x9f, 0x98, 'x'}, "\uFFFDx"},
		{"surrogate half", []byte{0xed, 0xa0, 0x80}, "\uFFFD\uFFFD\uFFFD"},
		{"overlong encoding", []byte{0xc0, 0xaf}, "\uFFFD\uFFFD"},
		{"stray continuation", []byte{'a', 0x80, 'b'}, "a\uFFFDb"},
		{"valid after broken", []byte{0xe2, 0x82, 0xe2, 0x82, 0xac}, "\uFFFD€"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeLossy(tt.in)
			assert.True(t, utf8.ValidString(got))
			assert.Equal(t, tt.want, got)
		})
	}
}
