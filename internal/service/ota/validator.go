package ota

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
)

const validationMessageDuration = 2 * time.Second

var (
	errNotADirectory = errors.New("not a directory")
	errIsADirectory  = errors.New("is a directory")
)

// PackageValidator checks that the downloaded archive contains the installable binary.
// Gates run in order: download directory, package file, archive format, binary entry.
type PackageValidator struct {
	cfg      *config.Config
	fs       afero.Fs
	reporter Reporter
}

// NewPackageValidator creates a validator working on top of fs.
func NewPackageValidator(cfg *config.Config, fs afero.Fs, reporter Reporter) *PackageValidator {
	return &PackageValidator{
		cfg:      cfg,
		fs:       fs,
		reporter: reporter,
	}
}

// Validate runs every gate and returns an *Error naming the first one that failed.
func (v *PackageValidator) Validate(ctx context.Context) error {
	return v.withBinary(ctx, func(io.Reader) error {
		return nil
	})
}

// GotValidPackage reports whether all gates pass.
func (v *PackageValidator) GotValidPackage(ctx context.Context) bool {
	return v.Validate(ctx) == nil
}

// CopyBinary validates the package and copies the binary entry to dst.
func (v *PackageValidator) CopyBinary(ctx context.Context, dst io.Writer) error {
	return v.withBinary(ctx, func(binary io.Reader) error {
		if _, err := io.Copy(dst, binary); err != nil {
			return fmt.Errorf("read binary entry: %w", err)
		}

		return nil
	})
}

// withBinary opens every handle in gate order and passes the binary entry to fn.
// All handles are closed before it returns.
func (v *PackageValidator) withBinary(ctx context.Context, fn func(io.Reader) error) error {
	ctx = logger.WithKV(ctx, "package", path.Join(v.cfg.DownloadDir, v.cfg.PackageName))

	// Gate 1: download directory.
	dir, err := v.fs.Open(v.cfg.DownloadDir)
	if err != nil {
		return v.fail(ctx, KindDirectoryUnavailable, "Couldn't open download dir!", err)
	}

	defer func() {
		_ = dir.Close()
	}()

	dirInfo, err := dir.Stat()
	if err == nil && !dirInfo.IsDir() {
		err = errNotADirectory
	}

	if err != nil {
		return v.fail(ctx, KindDirectoryUnavailable, "Couldn't open download dir!", err)
	}

	downloads := afero.NewBasePathFs(v.fs, v.cfg.DownloadDir)

	// Gate 2: package file.
	file, err := downloads.Open(v.cfg.PackageName)
	if err != nil {
		return v.fail(ctx, KindFileUnavailable, "Couldn't open downloaded file!", err)
	}

	defer func() {
		_ = file.Close()
	}()

	fileInfo, err := file.Stat()
	if err == nil && fileInfo.IsDir() {
		err = errIsADirectory
	}

	if err != nil {
		return v.fail(ctx, KindFileUnavailable, "Couldn't open downloaded file!", err)
	}

	// Gate 3: archive format.
	archive, err := zip.NewReader(file, fileInfo.Size())
	if err != nil {
		return v.fail(ctx, KindNotAnArchive, "Downloaded file is not an archive!", err)
	}

	// Gate 4: binary entry.
	entry, err := archive.Open(entryName(v.cfg.BinaryPath))
	if err != nil {
		return v.fail(ctx, KindMissingBinaryEntry, "Invalid update package!", err)
	}

	defer func() {
		_ = entry.Close()
	}()

	entryInfo, err := entry.Stat()
	if err == nil && entryInfo.IsDir() {
		err = errIsADirectory
	}

	if err != nil {
		return v.fail(ctx, KindMissingBinaryEntry, "Invalid update package!", err)
	}

	logger.InfoKV(ctx, "Package is valid", "binary", v.cfg.BinaryPath, "size", entryInfo.Size())

	return fn(entry)
}

// fail reports the gate-specific message and returns the classified error.
func (v *PackageValidator) fail(ctx context.Context, kind Kind, text string, cause error) error {
	logger.WarnKV(ctx, "Package validation failed", "kind", kind.String(), "error", cause)

	v.reporter.ReportMessage(ctx, Message{
		Icon:     IconError,
		Title:    v.cfg.Title,
		Text:     text,
		Duration: validationMessageDuration,
	})

	return newError(kind, cause)
}

// entryName converts a configured binary path into a zip entry name.
func entryName(binaryPath string) string {
	name := path.Clean(strings.ReplaceAll(binaryPath, "\\", "/"))

	return strings.TrimPrefix(name, "/")
}
