package journald

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yairfalse/journal-forwarder/pkg/domain"
)

// ClientConfig configures a gatewayd client for one source
type ClientConfig struct {
	// BaseURL is the gatewayd root, e.g. http://host:19531
	BaseURL string
	// Units restricts entries to these systemd units (OR semantics)
	Units []string
	// Timeout bounds each request; zero means DefaultRequestTimeout
	Timeout time.Duration
	// UserAgent is sent when set
	UserAgent string
	// HTTPClient overrides the default client, mainly for tests
	HTTPClient *http.Client
}

// Client fetches journal entries from a systemd-journal-gatewayd endpoint
type Client struct {
	baseURL    string
	units      []string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new gatewayd client
func NewClient(config ClientConfig, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(config.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid gatewayd URL %q: %w", config.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid gatewayd URL %q: scheme must be http or https", config.BaseURL)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    base,
		units:      append([]string(nil), config.Units...),
		userAgent:  config.UserAgent,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Fetch returns up to limit entries strictly after cursor. An empty cursor
// starts at the beginning of the current boot. A 410 response is reported as
// ErrCursorInvalid; 204 yields an empty slice.
func (c *Client) Fetch(ctx context.Context, cursor string, limit int) ([]domain.JournalEntry, error) {
	target := c.EntriesURL(cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gatewayd request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Range", fmt.Sprintf("entries=:%d", limit))
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("Fetching journal entries",
		zap.String("url", target),
		zap.Int("limit", limit))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "GET", URL: target, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransportError{Op: "read", URL: target, Err: err}
		}
		return ParseEntries(body, c.logger), nil

	case http.StatusNoContent:
		c.logger.Debug("No new entries")
		return nil, nil

	case http.StatusGone:
		c.logger.Warn("Cursor is no longer valid (410 Gone)")
		return nil, ErrCursorInvalid

	default:
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &ServerError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
}

// EntriesURL builds the /entries query. The boot filter is a bare flag, so
// the query string is assembled by hand instead of through url.Values.
func (c *Client) EntriesURL(cursor string) string {
	parts := make([]string, 0, len(c.units)+2)
	if cursor != "" {
		parts = append(parts, "cursor="+url.QueryEscape(cursor), "skip=1")
	} else {
		parts = append(parts, "boot")
	}
	for _, unit := range c.units {
		parts = append(parts, FieldSystemdUnit+"="+url.QueryEscape(unit))
	}
	return c.baseURL + "/entries?" + strings.Join(parts, "&")
}
