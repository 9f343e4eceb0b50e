package ota

import (
	"context"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
)

// DeviceLinkResolver asks the server whether a model shares another model's update stream.
type DeviceLinkResolver struct {
	cfg          *config.Config
	connectivity Connectivity
	fetcher      Fetcher
}

// NewDeviceLinkResolver creates a resolver querying cfg.LinkURLTemplate.
func NewDeviceLinkResolver(cfg *config.Config, connectivity Connectivity, fetcher Fetcher) *DeviceLinkResolver {
	return &DeviceLinkResolver{
		cfg:          cfg,
		connectivity: connectivity,
		fetcher:      fetcher,
	}
}

// Resolve returns the linked model, or an error of kind NetworkUnavailable or NoLinkedDevice.
func (r *DeviceLinkResolver) Resolve(ctx context.Context, deviceModel string) (string, error) {
	if !r.connectivity.EnsureConnected(ctx) {
		return "", ErrNetworkUnavailable
	}

	linked := fetchBody(ctx, r.fetcher, Expand(r.cfg.LinkURLTemplate, deviceModel))
	if linked == "" || len(linked) > r.cfg.MaxVersionLength {
		logger.InfoKV(ctx, "Device is not linked", "device", deviceModel, "length", len(linked))
		return "", ErrNoLinkedDevice
	}

	logger.InfoKV(ctx, "Device is linked", "device", deviceModel, "linked", linked)

	return linked, nil
}

// ResolveLinkedDevice returns the linked model and true, or false when the model is not linked.
func (r *DeviceLinkResolver) ResolveLinkedDevice(ctx context.Context, deviceModel string) (string, bool) {
	linked, err := r.Resolve(ctx, deviceModel)

	return linked, err == nil
}
