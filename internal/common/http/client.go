// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

// Client wraps the standard HTTP client with bounded retries for transient
// failures. Only bodyless requests are retried, so POSTs are never replayed.
type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseDelay: 200 * time.Millisecond,
	}
}

// NewRetryingClient builds a client that retries transport errors and 5xx
// responses up to maxRetries additional attempts with exponential backoff.
func NewRetryingClient(timeout time.Duration, maxRetries int) *Client {
	c := NewClient(timeout)
	if maxRetries > 0 {
		c.maxRetries = maxRetries
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = c.httpClient.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if attempt >= c.maxRetries || req.Body != nil {
			return resp, err
		}
		if err == nil {
			resp.Body.Close()
		}

		select {
		case <-time.After(c.baseDelay << attempt):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
