package packager

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
	"github.com/oshokin/ota-updater/internal/service/ota"
)

var (
	errVersionRequired = errors.New("release version must be provided")
	errVersionLength   = errors.New("release version length is out of range")
	errNoDevices       = errors.New("at least one device model must be provided")
	errBinaryRequired  = errors.New("binary file must be provided")
	errEmptyURLPath    = errors.New("url has no path to publish under")
	errInvalidLink     = errors.New("twin device link is invalid")
)

const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is the device configuration whose URLs define the published layout.
	ConfigPath string
	// OutputDir receives the published tree.
	OutputDir string
	// Version is written to the version endpoint.
	Version string
	// BinaryFile is the application build to wrap into the package.
	BinaryFile string
	// Devices are the models a package is published for.
	Devices []string
	// Links map a device model without its own package to a twin model that has one.
	Links map[string]string
	// Fs holds both the binary and the output tree; the OS filesystem when nil.
	Fs afero.Fs
}

// packager writes one release.
type packager struct {
	cfg     *config.Config
	fs      afero.Fs
	opts    *Options
	written []string
}

// Run publishes the version, per-device packages, availability markers and links.
// It returns the written files relative to OutputDir.
func Run(ctx context.Context, opts *Options) ([]string, error) {
	ctx = logger.WithName(ctx, "ota-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err = validateOptions(cfg, opts); err != nil {
		return nil, err
	}

	p := &packager{
		cfg:  cfg,
		fs:   opts.Fs,
		opts: opts,
	}

	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}

	if err = p.run(ctx); err != nil {
		return nil, fmt.Errorf("packager failed: %w", err)
	}

	sort.Strings(p.written)
	p.printNextSteps(ctx)

	return p.written, nil
}

func validateOptions(cfg *config.Config, opts *Options) error {
	switch {
	case opts.Version == "":
		return errVersionRequired
	case len(opts.Version) < config.MinVersionLength || len(opts.Version) > cfg.MaxVersionLength:
		return fmt.Errorf("%w: %q must be %d..%d bytes",
			errVersionLength, opts.Version, config.MinVersionLength, cfg.MaxVersionLength)
	case len(opts.Devices) == 0:
		return errNoDevices
	case opts.BinaryFile == "":
		return errBinaryRequired
	}

	return validateLinks(cfg, opts)
}

// validateLinks rejects links a device would discard or could not follow.
func validateLinks(cfg *config.Config, opts *Options) error {
	published := make(map[string]struct{}, len(opts.Devices))
	for _, device := range opts.Devices {
		published[device] = struct{}{}
	}

	for device, twin := range opts.Links {
		switch {
		case device == "":
			return fmt.Errorf("%w: empty device model", errInvalidLink)
		case twin == "" || len(twin) > cfg.MaxVersionLength:
			return fmt.Errorf("%w: %s -> %q must be 1..%d bytes",
				errInvalidLink, device, twin, cfg.MaxVersionLength)
		}

		if _, ok := published[twin]; !ok {
			return fmt.Errorf("%w: %s -> %s has no published package", errInvalidLink, device, twin)
		}
	}

	return nil
}

func (p *packager) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Publishing version", "version", p.opts.Version)

	if err := p.writeText(p.cfg.VersionURL, p.opts.Version); err != nil {
		return err
	}

	for _, device := range p.opts.Devices {
		logger.InfoKV(ctx, "Publishing package", "device", device)

		if err := p.writePackage(ota.Expand(p.cfg.DownloadURLTemplate, device)); err != nil {
			return fmt.Errorf("package for %s: %w", device, err)
		}

		if err := p.writeText(ota.Expand(p.cfg.TestURLTemplate, device), p.cfg.ExistsSentinel); err != nil {
			return fmt.Errorf("availability marker for %s: %w", device, err)
		}
	}

	for device, twin := range p.opts.Links {
		if err := p.writeText(ota.Expand(p.cfg.LinkURLTemplate, device), twin); err != nil {
			return fmt.Errorf("link %s -> %s: %w", device, twin, err)
		}
	}

	return nil
}

// writePackage zips the binary under cfg.BinaryPath.
func (p *packager) writePackage(rawURL string) error {
	return p.create(rawURL, func(dst io.Writer) error {
		binary, err := p.fs.Open(filepath.Clean(p.opts.BinaryFile))
		if err != nil {
			return fmt.Errorf("open binary: %w", err)
		}

		defer func() {
			_ = binary.Close()
		}()

		archive := zip.NewWriter(dst)

		entry, err := archive.Create(strings.TrimPrefix(filepath.ToSlash(p.cfg.BinaryPath), "/"))
		if err != nil {
			return fmt.Errorf("create archive entry: %w", err)
		}

		if _, err = io.Copy(entry, binary); err != nil {
			return fmt.Errorf("write archive entry: %w", err)
		}

		return archive.Close()
	})
}

func (p *packager) writeText(rawURL, body string) error {
	return p.create(rawURL, func(dst io.Writer) error {
		_, err := io.WriteString(dst, body)

		return err
	})
}

// create opens the file published at rawURL and fills it with write.
func (p *packager) create(rawURL string, write func(io.Writer) error) error {
	rel, err := publishedPath(rawURL)
	if err != nil {
		return err
	}

	target := filepath.Join(p.opts.OutputDir, filepath.FromSlash(rel))
	if err = p.fs.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}

	file, err := p.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", rel, err)
	}

	if err = write(file); err != nil {
		_ = file.Close()

		return fmt.Errorf("write %s: %w", rel, err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", rel, err)
	}

	p.written = append(p.written, rel)

	return nil
}

// publishedPath maps a URL to a slash-separated path below the publish root.
// For s3 URLs the bucket becomes the first path element.
func publishedPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}

	rel := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if strings.EqualFold(u.Scheme, config.SchemeS3) {
		rel = path.Join(u.Host, rel)
	}

	if rel == "" || rel == "." {
		return "", fmt.Errorf("%q: %w", rawURL, errEmptyURLPath)
	}

	return rel, nil
}

// printNextSteps logs human-readable guidance for next actions with the created files.
func (p *packager) printNextSteps(ctx context.Context) {
	var builder strings.Builder

	builder.WriteString("Upload the contents of ")
	builder.WriteString(p.opts.OutputDir)
	builder.WriteString(" to the update server root:\n")
	builder.WriteString(strings.Join(p.written, ",\n"))

	logger.Info(ctx, builder.String())
}
