package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the update endpoints and package layout used by the updater.
// It is loaded once and passed by pointer into every component; components never modify it.
type Config struct {
	// VersionURL returns the latest published version string as plain text.
	VersionURL string `yaml:"version_url"`
	// LinkURLTemplate returns the linked device model for [DEVICE], or an empty body.
	LinkURLTemplate string `yaml:"link_url_template"`
	// TestURLTemplate answers with ExistsSentinel when a package for [DEVICE] is published.
	TestURLTemplate string `yaml:"test_url_template"`
	// DownloadURLTemplate points to the package archive for [DEVICE].
	DownloadURLTemplate string `yaml:"download_url_template"`
	// ExistsSentinel is the exact body the test URL returns for an existing package.
	ExistsSentinel string `yaml:"exists_sentinel"`
	// MaxVersionLength bounds version strings and linked device identifiers.
	MaxVersionLength int `yaml:"max_version_length"`
	// DownloadDir is where the package archive is stored before installation.
	DownloadDir string `yaml:"download_dir"`
	// PackageName is the archive filename inside DownloadDir.
	PackageName string `yaml:"package_name"`
	// BinaryPath is the slash-separated path of the installable binary inside the archive.
	BinaryPath string `yaml:"binary_path"`
	// TargetPath is the installed binary replaced by a validated package.
	TargetPath string `yaml:"target_path"`
	// DeviceModel overrides device model detection when set.
	DeviceModel string `yaml:"device_model"`
	// DeviceModelFile is read for the device model when DeviceModel is empty.
	DeviceModelFile string `yaml:"device_model_file"`
	// Title is shown as the caption of user-facing messages.
	Title string `yaml:"title"`
	// Timeout bounds connectivity checks and text queries.
	Timeout time.Duration `yaml:"timeout"`
	// MetricsFile receives Prometheus text metrics after each run when set.
	MetricsFile string `yaml:"metrics_file"`
	// S3 configures access to s3:// endpoints.
	S3 S3Config `yaml:"s3"`
}

// S3Config holds credentials for an S3-compatible update bucket.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	Region          string `yaml:"region"`
}

const (
	// DefaultConfigFilename is the default filename for updater settings.
	DefaultConfigFilename = "ota-updater.yaml"

	// DevicePlaceholder is substituted with a device model in URL templates.
	DevicePlaceholder = "[DEVICE]"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxVersionLength bounds version and linked device responses.
	DefaultMaxVersionLength = 32

	// MinVersionLength is the shortest response accepted as a version string.
	MinVersionLength = 6

	// DefaultExistsSentinel is the body of a test URL for a published package.
	DefaultExistsSentinel = "exists"

	// DefaultDownloadDir stores downloaded packages.
	DefaultDownloadDir = "downloads"

	// DefaultPackageName is the archive filename inside the download directory.
	DefaultPackageName = "cr3-pb-update.zip"

	// DefaultBinaryPath is where the installable binary lives inside the archive.
	DefaultBinaryPath = "system/bin/cr3-pb.app"

	// DefaultTitle captions user-facing messages.
	DefaultTitle = "CoolReader"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// SchemeS3 marks URLs served from an S3-compatible bucket.
	SchemeS3 = "s3"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errVersionURLRequired is returned when the version endpoint is missing.
	errVersionURLRequired = errors.New("version url must be provided")
	// errTemplateRequired is returned when a URL template is missing.
	errTemplateRequired = errors.New("url template must be provided")
	// errPlaceholderMissing is returned when a template cannot be expanded.
	errPlaceholderMissing = errors.New("url template has no " + DevicePlaceholder + " placeholder")
	// errMaxVersionLength is returned when no version string could pass the length check.
	errMaxVersionLength = errors.New("max version length must be at least 6")
	// errS3EndpointRequired is returned when s3:// URLs are used without an endpoint.
	errS3EndpointRequired = errors.New("s3 endpoint must be provided for s3 urls")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold S3 credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.VersionURL == "" {
		return errVersionURLRequired
	}

	if _, err := url.ParseRequestURI(settings.VersionURL); err != nil {
		return fmt.Errorf("invalid version url: %w", err)
	}

	templates := map[string]string{
		"link":     settings.LinkURLTemplate,
		"test":     settings.TestURLTemplate,
		"download": settings.DownloadURLTemplate,
	}

	for name, template := range templates {
		if err := validateTemplate(template); err != nil {
			return fmt.Errorf("%s url template: %w", name, err)
		}
	}

	if settings.MaxVersionLength == 0 {
		settings.MaxVersionLength = DefaultMaxVersionLength
	}

	if settings.MaxVersionLength < MinVersionLength {
		return errMaxVersionLength
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	applyPackageDefaults(settings)

	if settings.usesS3() && settings.S3.Endpoint == "" {
		return errS3EndpointRequired
	}

	return nil
}

// applyPackageDefaults fills optional package layout and presentation fields.
func applyPackageDefaults(settings *Config) {
	if settings.ExistsSentinel == "" {
		settings.ExistsSentinel = DefaultExistsSentinel
	}

	if settings.DownloadDir == "" {
		settings.DownloadDir = DefaultDownloadDir
	}

	if settings.PackageName == "" {
		settings.PackageName = DefaultPackageName
	}

	if settings.BinaryPath == "" {
		settings.BinaryPath = DefaultBinaryPath
	}

	if settings.TargetPath == "" {
		settings.TargetPath = filepath.Base(settings.BinaryPath)
	}

	if settings.Title == "" {
		settings.Title = DefaultTitle
	}
}

// validateTemplate makes sure the template expands into a parseable URL.
func validateTemplate(template string) error {
	if template == "" {
		return errTemplateRequired
	}

	if !strings.Contains(template, DevicePlaceholder) {
		return errPlaceholderMissing
	}

	sample := strings.ReplaceAll(template, DevicePlaceholder, "model")
	if _, err := url.ParseRequestURI(sample); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	return nil
}

// usesS3 reports whether any endpoint is served from an S3 bucket.
func (c *Config) usesS3() bool {
	for _, raw := range []string{c.VersionURL, c.LinkURLTemplate, c.TestURLTemplate, c.DownloadURLTemplate} {
		if strings.HasPrefix(strings.ToLower(raw), SchemeS3+"://") {
			return true
		}
	}

	return false
}
