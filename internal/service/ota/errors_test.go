package ota

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestError_IsAndKindOf verifies kind matching through wrapping.
func TestError_IsAndKindOf(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("install: %w", newError(KindNotAnArchive, fs.ErrInvalid))

	require.ErrorIs(t, err, ErrNotAnArchive)
	require.NotErrorIs(t, err, ErrMissingBinaryEntry)
	require.ErrorIs(t, err, fs.ErrInvalid)
	require.Equal(t, KindNotAnArchive, KindOf(err))
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	require.Equal(t, "not_an_archive: invalid argument", newError(KindNotAnArchive, fs.ErrInvalid).Error())
	require.Equal(t, "no_linked_device", ErrNoLinkedDevice.Error())
}
