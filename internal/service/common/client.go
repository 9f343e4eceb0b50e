//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/version"
)

// maxQueryBodyBytes bounds text query responses; update metadata is tiny.
const maxQueryBodyBytes = 64 << 10

var (
	// errBadHTTPStatus is returned for any non-200 response.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errBodyTooLarge is returned when a text query exceeds maxQueryBodyBytes.
	errBodyTooLarge = errors.New("response body too large")
)

// Client fetches update metadata and packages over HTTP.
type Client struct {
	// http performs the requests.
	http *http.Client
	// callTimeout bounds text queries; downloads rely on the caller's context.
	callTimeout time.Duration
	// userAgent identifies the updater build to the server.
	userAgent string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for text queries.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// NewClient creates an HTTP transport.
func NewClient(opts ...Option) *Client {
	client := &Client{
		http:        http.DefaultClient,
		callTimeout: config.DefaultTimeout,
		userAgent:   "ota-updater/" + version.Short(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Fetch returns the body of rawURL as text.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.get(callCtx, rawURL)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	return readQueryBody(response.Body)
}

// Download streams the body of rawURL into dst and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, rawURL string, dst io.Writer) (int64, error) {
	response, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	written, err := io.Copy(dst, response.Body)
	if err != nil {
		return written, fmt.Errorf("download %s: %w", rawURL, err)
	}

	return written, nil
}

// get issues a GET request and rejects non-200 responses.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)

	response, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", rawURL, response.Status, errBadHTTPStatus)
	}

	return response, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// readQueryBody reads a bounded text body.
func readQueryBody(body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxQueryBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if len(data) > maxQueryBodyBytes {
		return "", errBodyTooLarge
	}

	return string(data), nil
}
