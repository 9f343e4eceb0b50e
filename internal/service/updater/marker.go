package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/mitchellh/go-ps"
	"github.com/spf13/afero"

	"github.com/oshokin/ota-updater/internal/logger"
)

var errUpdaterAlreadyRunning = errors.New("the updater is already running")

const (
	// MarkerFilename marks that the updater is running right now to avoid parallel execution.
	MarkerFilename = "ota-updater-marker.bin"

	// markerLifetime is the period after which a marker is considered stale.
	markerLifetime = 15 * time.Minute

	baseUpdaterExecutable = "ota-updater"
)

// terminateFunc kills every other process running the named executable.
type terminateFunc func(processName string) error

// Marker is the on-disk lock of a single updater run.
type Marker struct {
	fs        afero.Fs
	path      string
	lifetime  time.Duration
	terminate terminateFunc
}

// NewMarker creates a marker at path on fs, MarkerFilename when empty.
func NewMarker(fs afero.Fs, path string) *Marker {
	if path == "" {
		path = MarkerFilename
	}

	return &Marker{
		fs:        fs,
		path:      path,
		lifetime:  markerLifetime,
		terminate: terminateProcessByName,
	}
}

// Acquire creates the marker or fails when another run holds it.
func (m *Marker) Acquire(ctx context.Context) error {
	if m.IsUpdaterRunningNow(ctx) {
		return errUpdaterAlreadyRunning
	}

	file, err := m.fs.Create(m.path)
	if err != nil {
		return fmt.Errorf("create update marker: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close update marker: %w", err)
	}

	return nil
}

// Release removes the marker if present.
func (m *Marker) Release(ctx context.Context) {
	if err := m.fs.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove update marker", "path", m.path, "error", err)
	}
}

// IsUpdaterRunningNow checks presence of the marker and attempts recovery if it looks stale.
func (m *Marker) IsUpdaterRunningNow(ctx context.Context) bool {
	fileInfo, err := m.fs.Stat(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.WarnKV(ctx, "Unable to read update marker", "path", m.path, "error", err)

		return false
	}

	if time.Since(fileInfo.ModTime()) <= m.lifetime {
		return true
	}

	logger.InfoKV(ctx, "The update marker is too old, attempting cleanup", "modified", fileInfo.ModTime())

	if err = m.terminate(updaterExecutable()); err != nil {
		logger.WarnKV(ctx, "Unable to stop stale updater", "error", err)

		return true
	}

	if err = m.fs.Remove(m.path); err != nil {
		return true
	}

	return false
}

// terminateProcessByName kills processes with the provided executable name, except this one.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID || process.Executable() != processName {
			continue
		}

		runningProcess, findErr := os.FindProcess(process.Pid())
		if findErr != nil {
			return findErr
		}

		if err = runningProcess.Kill(); err != nil {
			return fmt.Errorf("kill process %d: %w", process.Pid(), err)
		}
	}

	return nil
}

func updaterExecutable() string {
	if runtime.GOOS == "windows" {
		return baseUpdaterExecutable + ".exe"
	}

	return baseUpdaterExecutable
}
