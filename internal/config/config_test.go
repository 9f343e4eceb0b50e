package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		VersionURL:          "https://updates.example.com/version.txt",
		LinkURLTemplate:     "https://updates.example.com/link/[DEVICE].txt",
		TestURLTemplate:     "https://updates.example.com/[DEVICE]/test.txt",
		DownloadURLTemplate: "https://updates.example.com/[DEVICE]/cr3-pb-update.zip",
	}
}

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Missing version url.
	settings := validConfig()
	settings.VersionURL = ""
	require.ErrorIs(t, Validate(settings), errVersionURLRequired)

	// Bad version url.
	settings = validConfig()
	settings.VersionURL = "not a url"
	require.Error(t, Validate(settings))

	// Template without placeholder.
	settings = validConfig()
	settings.TestURLTemplate = "https://updates.example.com/test.txt"
	require.ErrorIs(t, Validate(settings), errPlaceholderMissing)

	// Missing template.
	settings = validConfig()
	settings.LinkURLTemplate = ""
	require.ErrorIs(t, Validate(settings), errTemplateRequired)

	// Length bound too small to accept any version.
	settings = validConfig()
	settings.MaxVersionLength = 5
	require.ErrorIs(t, Validate(settings), errMaxVersionLength)

	// S3 endpoint required for s3 urls.
	settings = validConfig()
	settings.DownloadURLTemplate = "s3://firmware/[DEVICE]/cr3-pb-update.zip"
	require.ErrorIs(t, Validate(settings), errS3EndpointRequired)

	settings.S3.Endpoint = "minio.local:9000"
	require.NoError(t, Validate(settings))
}

// TestValidate_Defaults ensures optional fields receive their defaults.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	settings := validConfig()
	require.NoError(t, Validate(settings))

	require.Equal(t, DefaultMaxVersionLength, settings.MaxVersionLength)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultExistsSentinel, settings.ExistsSentinel)
	require.Equal(t, DefaultDownloadDir, settings.DownloadDir)
	require.Equal(t, DefaultPackageName, settings.PackageName)
	require.Equal(t, DefaultBinaryPath, settings.BinaryPath)
	require.Equal(t, "cr3-pb.app", settings.TargetPath)
	require.Equal(t, DefaultTitle, settings.Title)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := validConfig()
	settings.DeviceModel = "PB626"
	settings.ExistsSentinel = "package-ok"

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.VersionURL, loaded.VersionURL)
	require.Equal(t, settings.TestURLTemplate, loaded.TestURLTemplate)
	require.Equal(t, settings.DeviceModel, loaded.DeviceModel)
	require.Equal(t, settings.ExistsSentinel, loaded.ExistsSentinel)
	require.Equal(t, settings.Timeout, loaded.Timeout)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_Missing ensures a missing file is reported.
func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
