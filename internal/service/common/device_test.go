//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/ota-updater/internal/config"
)

// TestDeviceModelSource covers static, file-based and missing models.
func TestDeviceModelSource(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/device-model", []byte(" PB626 \nrevision 2\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/etc/empty", []byte("\n"), 0o644))

	static := NewDeviceModelSource(fs, &config.Config{DeviceModel: "PB740", DeviceModelFile: "/etc/device-model"})
	model, err := static.DeviceModel(context.Background())
	require.NoError(t, err)
	require.Equal(t, "PB740", model)

	fromFile := NewDeviceModelSource(fs, &config.Config{DeviceModelFile: "/etc/device-model"})
	model, err = fromFile.DeviceModel(context.Background())
	require.NoError(t, err)
	require.Equal(t, "PB626", model)

	// The model is cached after the first read.
	require.NoError(t, fs.Remove("/etc/device-model"))

	model, err = fromFile.DeviceModel(context.Background())
	require.NoError(t, err)
	require.Equal(t, "PB626", model)

	_, err = NewDeviceModelSource(fs, new(config.Config)).DeviceModel(context.Background())
	require.ErrorIs(t, err, errDeviceModelNotConfigured)

	_, err = NewDeviceModelSource(fs, &config.Config{DeviceModelFile: "/etc/empty"}).DeviceModel(context.Background())
	require.ErrorIs(t, err, errDeviceModelEmpty)

	_, err = NewDeviceModelSource(fs, &config.Config{DeviceModelFile: "/etc/missing"}).DeviceModel(context.Background())
	require.Error(t, err)
}
