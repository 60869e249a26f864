package journald

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, baseURL string, units ...string) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{BaseURL: baseURL, Units: units, Timeout: 5 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("rejects non-http scheme", func(t *testing.T) {
		_, err := NewClient(ClientConfig{BaseURL: "ftp://host"}, nil)
		assert.Error(t, err)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "http://host:19531/"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "http://host:19531/entries?boot", client.EntriesURL(""))
	})
}

func TestEntriesURL(t *testing.T) {
	client := newTestClient(t, "http://host:19531", "nginx.service", "my app.service")

	t.Run("with cursor skips the cursor entry", func(t *testing.T) {
		assert.Equal(t,
			"http://host:19531/entries?cursor=s%3Dabc%3Bi%3D1&skip=1&_SYSTEMD_UNIT=nginx.service&_SYSTEMD_UNIT=my+app.service",
			client.EntriesURL("s=abc;i=1"))
	})

	t.Run("without cursor starts at current boot", func(t *testing.T) {
		assert.Equal(t,
			"http://host:19531/entries?boot&_SYSTEMD_UNIT=nginx.service&_SYSTEMD_UNIT=my+app.service",
			client.EntriesURL(""))
	})
}

func TestFetch(t *testing.T) {
	t.Run("sends query and headers", func(t *testing.T) {
		var gotReq *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReq = r
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{
			BaseURL:   server.URL,
			Units:     []string{"a.service", "b.service"},
			UserAgent: "journal-forwarder/test",
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		_, err = client.Fetch(context.Background(), "s=1", 250)
		require.NoError(t, err)

		require.NotNil(t, gotReq)
		assert.Equal(t, "/entries", gotReq.URL.Path)
		assert.Equal(t, "s=1", gotReq.URL.Query().Get("cursor"))
		assert.Equal(t, "1", gotReq.URL.Query().Get("skip"))
		assert.Equal(t, []string{"a.service", "b.service"}, gotReq.URL.Query()["_SYSTEMD_UNIT"])
		assert.Equal(t, "application/json", gotReq.Header.Get("Accept"))
		assert.Equal(t, "entries=:250", gotReq.Header.Get("Range"))
		assert.Equal(t, "journal-forwarder/test", gotReq.Header.Get("User-Agent"))
	})

	t.Run("decodes ndjson on 200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := r.URL.Query()["boot"]
			assert.True(t, ok)
			for i := 1; i <= 3; i++ {
				fmt.Fprintf(w, `{"__CURSOR":"c%d","__REALTIME_TIMESTAMP":"%d","MESSAGE":"m%d"}`+"\n", i, i, i)
			}
		}))
		defer server.Close()

		entries, err := newTestClient(t, server.URL).Fetch(context.Background(), "", 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "c3", entries[2].Cursor)
		assert.Equal(t, "m2", entries[1].Message)
	})

	t.Run("one malformed line is dropped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{"__CURSOR":"c1","__REALTIME_TIMESTAMP":"1"}`)
			fmt.Fprintln(w, `{not json}`)
			fmt.Fprintln(w, `{"__CURSOR":"c3","__REALTIME_TIMESTAMP":"3"}`)
		}))
		defer server.Close()

		entries, err := newTestClient(t, server.URL).Fetch(context.Background(), "c0", 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "c1", entries[0].Cursor)
		assert.Equal(t, "c3", entries[1].Cursor)
	})

	t.Run("204 is empty without error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		entries, err := newTestClient(t, server.URL).Fetch(context.Background(), "c", 10)
		assert.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("410 is cursor invalid", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Fetch(context.Background(), "old", 10)
		assert.ErrorIs(t, err, ErrCursorInvalid)
	})

	t.Run("other status is a server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Fetch(context.Background(), "", 10)
		var serverErr *ServerError
		require.True(t, errors.As(err, &serverErr))
		assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
	})

	t.Run("unreachable host is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newTestClient(t, url).Fetch(context.Background(), "", 10)
		var transportErr *TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "GET", transportErr.Op)
	})
}
