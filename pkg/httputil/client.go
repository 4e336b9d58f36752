package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/usetrmnl/inkpipe/pkg/buildinfo"
	"github.com/usetrmnl/inkpipe/pkg/cache"
)

// maxBody bounds response bodies read from data sources.
const maxBody = 4 << 20

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
}

// Client issues JSON requests with retry.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	BaseDelay time.Duration // first backoff wait; 0 means one second
}

// NewClient returns a client whose individual requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: buildinfo.UserAgent(),
		BaseDelay: time.Second,
	}
}

// GetJSON fetches rawURL with query appended and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, v any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vals := range query {
			for _, val := range vals {
				q.Add(k, val)
			}
		}
		u.RawQuery = q.Encode()
	}

	delay := c.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var body []byte
	err = cache.RetryWithBackoff(ctx, delay, func() error {
		b, err := c.get(ctx, u.String())
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", u.Redacted(), err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, cache.Retryable(&StatusError{URL: target, Status: resp.StatusCode})
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: target, Status: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}
