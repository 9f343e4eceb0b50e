package updater

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var errTestTerminate = errors.New("test terminate error")

func newTestMarker(t *testing.T, terminateErr error) (*Marker, *[]string) {
	t.Helper()

	var killed []string

	m := NewMarker(afero.NewMemMapFs(), filepath.Join("/run", MarkerFilename))
	m.terminate = func(name string) error {
		killed = append(killed, name)

		return terminateErr
	}

	return m, &killed
}

func ageMarker(t *testing.T, m *Marker) {
	t.Helper()

	old := time.Now().Add(-2 * markerLifetime)
	require.NoError(t, m.fs.Chtimes(m.path, old, old))
}

func markerExists(t *testing.T, m *Marker) bool {
	t.Helper()

	exists, err := afero.Exists(m.fs, m.path)
	require.NoError(t, err)

	return exists
}

func TestMarker_AcquireRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, killed := newTestMarker(t, nil)

	require.False(t, m.IsUpdaterRunningNow(ctx))
	require.NoError(t, m.Acquire(ctx))
	require.True(t, markerExists(t, m))
	require.True(t, m.IsUpdaterRunningNow(ctx))
	require.ErrorIs(t, m.Acquire(ctx), errUpdaterAlreadyRunning)

	m.Release(ctx)
	require.False(t, markerExists(t, m))
	require.False(t, m.IsUpdaterRunningNow(ctx))
	require.Empty(t, *killed)

	// Releasing twice is harmless.
	m.Release(ctx)
}

func TestMarker_StaleMarkerIsRecovered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, killed := newTestMarker(t, nil)

	require.NoError(t, m.Acquire(ctx))
	ageMarker(t, m)

	require.False(t, m.IsUpdaterRunningNow(ctx))
	require.Equal(t, []string{updaterExecutable()}, *killed)
	require.False(t, markerExists(t, m))
}

func TestMarker_StaleMarkerKeptWhenKillFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestMarker(t, errTestTerminate)

	require.NoError(t, m.Acquire(ctx))
	ageMarker(t, m)

	require.True(t, m.IsUpdaterRunningNow(ctx))
	require.True(t, markerExists(t, m))
}

// TestMarker_UsesProvidedFilesystem keeps the marker off the OS filesystem when given another one.
func TestMarker_UsesProvidedFilesystem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), MarkerFilename)
	m := NewMarker(afero.NewMemMapFs(), path)

	require.NoError(t, m.Acquire(ctx))
	require.True(t, markerExists(t, m))
	require.NoFileExists(t, path)
}

func TestNewMarker_DefaultPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, MarkerFilename, NewMarker(afero.NewMemMapFs(), "").path)
}
