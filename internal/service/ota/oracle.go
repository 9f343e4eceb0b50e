package ota

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
)

var errVersionLength = errors.New("version length out of range")

// VersionOracle compares the published version with the running build.
type VersionOracle struct {
	cfg            *config.Config
	connectivity   Connectivity
	fetcher        Fetcher
	currentVersion string
}

// NewVersionOracle creates an oracle for the build identified by currentVersion.
func NewVersionOracle(
	cfg *config.Config,
	connectivity Connectivity,
	fetcher Fetcher,
	currentVersion string,
) *VersionOracle {
	return &VersionOracle{
		cfg:            cfg,
		connectivity:   connectivity,
		fetcher:        fetcher,
		currentVersion: currentVersion,
	}
}

// Check returns nil when a different valid version is published.
// Otherwise the error kind is NetworkUnavailable, MalformedVersionResponse or NoNewVersion.
func (o *VersionOracle) Check(ctx context.Context) error {
	if !o.connectivity.EnsureConnected(ctx) {
		return ErrNetworkUnavailable
	}

	latest := fetchBody(ctx, o.fetcher, o.cfg.VersionURL)

	if !validVersion(latest, o.cfg.MaxVersionLength) {
		logger.WarnKV(ctx, "Ignoring malformed version response",
			"length", len(latest), "max", o.cfg.MaxVersionLength)

		return newError(KindMalformedVersionResponse,
			fmt.Errorf("%w: got %d bytes", errVersionLength, len(latest)))
	}

	if latest == o.currentVersion {
		logger.InfoKV(ctx, "Running the latest version", "version", latest)
		return ErrNoNewVersion
	}

	logger.InfoKV(ctx, "New version published", "current", o.currentVersion, "latest", latest)

	return nil
}

// IsNewVersionAvailable reports whether a newer build is published.
func (o *VersionOracle) IsNewVersionAvailable(ctx context.Context) bool {
	return o.Check(ctx) == nil
}

// validVersion accepts strings longer than 5 bytes and no longer than maxLength.
// Shorter bodies are error payloads rather than versions.
func validVersion(v string, maxLength int) bool {
	return len(v) >= config.MinVersionLength && len(v) <= maxLength
}
