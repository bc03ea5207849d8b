// Package ipinfo looks up the server's public IP address from an external service.
package ipinfo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultURL is the public IP service queried when none is configured.
const DefaultURL = "https://api.ipify.org"

// maxBodySize bounds how much of the response body is read.
const maxBodySize = 4 << 10

// StatusError is returned when the lookup service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "ip lookup returned status " + http.StatusText(e.StatusCode)
}

// Client performs plain-text GET lookups.
type Client struct {
	url     string
	http    *retryablehttp.Client
	timeout time.Duration
}

// NewClient returns a Client for url. retryMax counts retries on connection
// errors only; 0 means a single attempt.
func NewClient(url string, timeout time.Duration, retryMax int) *Client {
	if url == "" {
		url = DefaultURL
	}

	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	client.CheckRetry = retryOnConnectionError
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{url: url, http: client, timeout: timeout}
}

// retryOnConnectionError retries only when no response was received.
func retryOnConnectionError(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	return err != nil, nil
}

// Lookup returns the body of the lookup service's response, trimmed of
// surrounding whitespace.
func (c *Client) Lookup(ctx context.Context) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build ip lookup request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read ip lookup response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}
