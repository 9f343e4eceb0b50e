package installer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/spf13/afero"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
	"github.com/oshokin/ota-updater/internal/service/ota"
)

const (
	// DefaultFileMode is applied to the installed binary.
	DefaultFileMode os.FileMode = 0o755

	// downloadDirMode is used when the download directory has to be created.
	downloadDirMode os.FileMode = 0o755
)

// Downloader streams a remote package into a writer.
type Downloader interface {
	Download(ctx context.Context, rawURL string, dst io.Writer) (int64, error)
}

// ApplyFunc replaces the target binary with the update read from r.
type ApplyFunc func(update io.Reader, opts goupdate.Options) error

// Installer implements ota.Installer on top of a download directory.
type Installer struct {
	cfg        *config.Config
	fs         afero.Fs
	downloader Downloader
	validator  *ota.PackageValidator
	apply      ApplyFunc
}

// Option configures an Installer.
type Option func(*Installer)

// WithApplyFunc replaces go-update's Apply, mainly for tests.
func WithApplyFunc(apply ApplyFunc) Option {
	return func(i *Installer) {
		if apply != nil {
			i.apply = apply
		}
	}
}

var _ ota.Installer = (*Installer)(nil)

// New creates an installer storing packages on fs.
func New(cfg *config.Config, fs afero.Fs, downloader Downloader, reporter ota.Reporter, opts ...Option) *Installer {
	i := &Installer{
		cfg:        cfg,
		fs:         fs,
		downloader: downloader,
		validator:  ota.NewPackageValidator(cfg, fs, reporter),
		apply:      goupdate.Apply,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Install downloads the package at rawURL, validates it and applies its binary.
func (i *Installer) Install(ctx context.Context, rawURL string) error {
	ctx = logger.WithName(ctx, "installer")

	if err := i.download(ctx, rawURL); err != nil {
		return err
	}

	var binary bytes.Buffer

	if err := i.validator.CopyBinary(ctx, &binary); err != nil {
		return fmt.Errorf("validate package: %w", err)
	}

	logger.InfoKV(ctx, "Applying update", "target", i.cfg.TargetPath, "size", binary.Len())

	options := goupdate.Options{
		TargetPath: i.cfg.TargetPath,
		TargetMode: DefaultFileMode,
	}

	if err := i.apply(&binary, options); err != nil {
		return fmt.Errorf("apply update to %s: %w", i.cfg.TargetPath, err)
	}

	oldFileName := filepath.Join(filepath.Dir(i.cfg.TargetPath), "."+filepath.Base(i.cfg.TargetPath)+".old")
	if _, err := os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	logger.Info(ctx, "Update applied")

	return nil
}

// Validate checks the package already present in the download directory.
func (i *Installer) Validate(ctx context.Context) error {
	return i.validator.Validate(ctx)
}

// download stores the remote package as DownloadDir/PackageName.
func (i *Installer) download(ctx context.Context, rawURL string) error {
	if err := i.fs.MkdirAll(i.cfg.DownloadDir, downloadDirMode); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	packagePath := filepath.Join(i.cfg.DownloadDir, i.cfg.PackageName)

	file, err := i.fs.Create(packagePath)
	if err != nil {
		return fmt.Errorf("create package file: %w", err)
	}

	written, err := i.downloader.Download(ctx, rawURL, file)
	if err != nil {
		_ = file.Close()

		return fmt.Errorf("download package: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close package file: %w", err)
	}

	logger.InfoKV(ctx, "Downloaded package", "url", rawURL, "path", packagePath, "bytes", written)

	return nil
}
