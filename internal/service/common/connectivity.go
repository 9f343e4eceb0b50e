//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
)

var errAddressRequired = errors.New("address must be provided")

// DialFunc opens a network connection, matching net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCPConnectivity treats the network as usable when the update host accepts a TCP connection.
type TCPConnectivity struct {
	address string
	timeout time.Duration
	dial    DialFunc
}

// NewTCPConnectivity creates a gate dialing address within timeout.
func NewTCPConnectivity(address string, timeout time.Duration) (*TCPConnectivity, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	dialer := new(net.Dialer)

	return &TCPConnectivity{
		address: address,
		timeout: timeout,
		dial:    dialer.DialContext,
	}, nil
}

// NewConnectivityForConfig dials the host serving the version endpoint.
func NewConnectivityForConfig(cfg *config.Config) (*TCPConnectivity, error) {
	address, err := updateHostAddress(cfg)
	if err != nil {
		return nil, err
	}

	return NewTCPConnectivity(address, cfg.Timeout)
}

// EnsureConnected reports whether the update host is reachable right now.
func (c *TCPConnectivity) EnsureConnected(ctx context.Context) bool {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(dialCtx, "tcp", c.address)
	if err != nil {
		logger.WarnKV(ctx, "Update host is unreachable", "address", c.address, "error", err)
		return false
	}

	_ = conn.Close()

	return true
}

// updateHostAddress derives host:port for the version endpoint.
func updateHostAddress(cfg *config.Config) (string, error) {
	u, err := url.Parse(cfg.VersionURL)
	if err != nil {
		return "", fmt.Errorf("parse version url: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == config.SchemeS3 {
		return withDefaultPort(cfg.S3.Endpoint, cfg.S3.UseSSL), nil
	}

	if u.Host == "" {
		return "", fmt.Errorf("version url %q: %w", cfg.VersionURL, errAddressRequired)
	}

	return withDefaultPort(u.Host, scheme == "https"), nil
}

// withDefaultPort appends 443 or 80 when host has no port.
func withDefaultPort(host string, secure bool) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}

	port := "80"
	if secure {
		port = "443"
	}

	return net.JoinHostPort(strings.Trim(host, "[]"), port)
}
