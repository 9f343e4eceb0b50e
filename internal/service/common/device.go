//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/oshokin/ota-updater/internal/config"
)

var (
	errDeviceModelNotConfigured = errors.New("neither device_model nor device_model_file is configured")
	errDeviceModelEmpty         = errors.New("device model file is empty")
)

// DeviceModelSource reads the model identifier of the current hardware unit.
// The model never changes while the process runs, so the first successful read is cached.
type DeviceModelSource struct {
	fs     afero.Fs
	static string
	file   string

	mu     sync.Mutex
	cached string
}

// NewDeviceModelSource uses cfg.DeviceModel, falling back to cfg.DeviceModelFile on fs.
func NewDeviceModelSource(fs afero.Fs, cfg *config.Config) *DeviceModelSource {
	return &DeviceModelSource{
		fs:     fs,
		static: strings.TrimSpace(cfg.DeviceModel),
		file:   cfg.DeviceModelFile,
	}
}

// DeviceModel returns the device model identifier.
func (s *DeviceModelSource) DeviceModel(context.Context) (string, error) {
	if s.static != "" {
		return s.static, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	if s.file == "" {
		return "", errDeviceModelNotConfigured
	}

	contents, err := afero.ReadFile(s.fs, s.file)
	if err != nil {
		return "", fmt.Errorf("read device model: %w", err)
	}

	firstLine, _, _ := strings.Cut(string(contents), "\n")

	model := strings.TrimSpace(firstLine)
	if model == "" {
		return "", fmt.Errorf("%s: %w", s.file, errDeviceModelEmpty)
	}

	s.cached = model

	return model, nil
}
