//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var errUnsupportedScheme = errors.New("unsupported url scheme")

// Transport fetches text and streams downloads for one URL scheme.
type Transport interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
	Download(ctx context.Context, rawURL string, dst io.Writer) (int64, error)
}

// Router dispatches requests to a Transport by URL scheme.
type Router struct {
	transports map[string]Transport
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		transports: make(map[string]Transport),
	}
}

// Handle registers transport for the URL scheme.
func (r *Router) Handle(scheme string, transport Transport) *Router {
	r.transports[strings.ToLower(scheme)] = transport

	return r
}

// Fetch forwards to the transport registered for the URL scheme.
func (r *Router) Fetch(ctx context.Context, rawURL string) (string, error) {
	transport, err := r.route(rawURL)
	if err != nil {
		return "", err
	}

	return transport.Fetch(ctx, rawURL)
}

// Download forwards to the transport registered for the URL scheme.
func (r *Router) Download(ctx context.Context, rawURL string, dst io.Writer) (int64, error) {
	transport, err := r.route(rawURL)
	if err != nil {
		return 0, err
	}

	return transport.Download(ctx, rawURL, dst)
}

func (r *Router) route(rawURL string) (Transport, error) { //nolint:ireturn // Routing returns the registered interface.
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}

	transport, ok := r.transports[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", u.Scheme, errUnsupportedScheme)
	}

	return transport, nil
}
