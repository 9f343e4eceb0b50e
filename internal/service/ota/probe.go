package ota

import (
	"context"
	"errors"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
)

var errSentinelMismatch = errors.New("response does not match the exists sentinel")

// AvailabilityProbe checks whether a package is published without downloading it.
// The server answers a test URL with a fixed sentinel body; the HTTP status is not consulted.
type AvailabilityProbe struct {
	cfg          *config.Config
	connectivity Connectivity
	fetcher      Fetcher
}

// NewAvailabilityProbe creates a probe matching against cfg.ExistsSentinel.
func NewAvailabilityProbe(cfg *config.Config, connectivity Connectivity, fetcher Fetcher) *AvailabilityProbe {
	return &AvailabilityProbe{
		cfg:          cfg,
		connectivity: connectivity,
		fetcher:      fetcher,
	}
}

// Check returns nil when the body at rawURL equals the sentinel exactly.
func (p *AvailabilityProbe) Check(ctx context.Context, rawURL string) error {
	if !p.connectivity.EnsureConnected(ctx) {
		return ErrNetworkUnavailable
	}

	body := fetchBody(ctx, p.fetcher, rawURL)
	if body != p.cfg.ExistsSentinel {
		logger.DebugKV(ctx, "Package not found", "url", rawURL, "length", len(body))
		return newError(KindProbeNegative, errSentinelMismatch)
	}

	logger.InfoKV(ctx, "Package found", "url", rawURL)

	return nil
}

// Exists reports whether the package behind rawURL is published.
func (p *AvailabilityProbe) Exists(ctx context.Context, rawURL string) bool {
	return p.Check(ctx, rawURL) == nil
}
