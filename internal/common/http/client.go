// internal/common/http/client.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client posts JSON payloads to outbound hooks and retries 5xx responses.
type Client struct {
	rest *resty.Client
}

// Options tunes retry behaviour. Zero values fall back to defaults.
type Options struct {
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

func NewClient(timeout time.Duration) *Client {
	return NewClientWithOptions(Options{Timeout: timeout})
}

func NewClientWithOptions(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryCount == 0 {
		opts.RetryCount = 3
	}
	if opts.RetryWait == 0 {
		opts.RetryWait = 500 * time.Millisecond
	}
	if opts.RetryMaxWait == 0 {
		opts.RetryMaxWait = 5 * time.Second
	}

	rest := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{rest: rest}
}

// PostJSON sends body as JSON and returns the final status code. Any status
// of 400 or above is an error.
func (c *Client) PostJSON(ctx context.Context, url string, body interface{}) (int, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", url, err)
	}
	if resp.IsError() {
		return resp.StatusCode(), fmt.Errorf("post %s: unexpected status %s", url, resp.Status())
	}
	return resp.StatusCode(), nil
}
