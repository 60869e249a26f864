package collector

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yairfalse/journal-forwarder/pkg/domain"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, cursor string, limit int) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, cursor, limit)
	entries, _ := args.Get(0).([]domain.JournalEntry)
	return entries, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Send(ctx context.Context, sourceName string, entries []domain.JournalEntry, labels map[string]string) error {
	args := m.Called(ctx, sourceName, entries, labels)
	return args.Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load() string {
	return m.Called().String(0)
}

func (m *mockStore) Save(cursor string) error {
	return m.Called(cursor).Error(0)
}

func (m *mockStore) Reset() error {
	return m.Called().Error(0)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) RecordForwarded(source string, count int) {
	m.Called(source, count)
}

func (m *mockSink) RecordError(source, kind string) {
	m.Called(source, kind)
}

func (m *mockSink) RecordPoll(source string, d time.Duration) {
	m.Called(source, d)
}

func entriesWithCursors(cursors ...string) []domain.JournalEntry {
	entries := make([]domain.JournalEntry, 0, len(cursors))
	for i, cursor := range cursors {
		entries = append(entries, domain.JournalEntry{
			Cursor:            cursor,
			RealtimeTimestamp: uint64(1703456789000000 + i),
			Message:           "message " + cursor,
			Priority:          domain.PriorityInfo,
			SystemdUnit:       "test.service",
		})
	}
	return entries
}
