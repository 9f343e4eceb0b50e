//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubTransport answers every request with a fixed body.
type stubTransport struct {
	body string
}

func (s *stubTransport) Fetch(context.Context, string) (string, error) {
	return s.body, nil
}

func (s *stubTransport) Download(_ context.Context, _ string, dst io.Writer) (int64, error) {
	n, err := io.WriteString(dst, s.body)

	return int64(n), err
}

// TestRouter_DispatchesByScheme sends requests to the transport for their scheme.
func TestRouter_DispatchesByScheme(t *testing.T) {
	t.Parallel()

	router := NewRouter().
		Handle("https", &stubTransport{body: "web"}).
		Handle("S3", &stubTransport{body: "bucket"})

	body, err := router.Fetch(context.Background(), "https://updates.example.com/version.txt")
	require.NoError(t, err)
	require.Equal(t, "web", body)

	body, err = router.Fetch(context.Background(), "s3://firmware/version.txt")
	require.NoError(t, err)
	require.Equal(t, "bucket", body)

	_, err = router.Fetch(context.Background(), "ftp://updates.example.com/version.txt")
	require.ErrorIs(t, err, errUnsupportedScheme)

	_, err = router.Download(context.Background(), "gopher://x/y", io.Discard)
	require.ErrorIs(t, err, errUnsupportedScheme)
}

// TestParseS3URL splits bucket and key and rejects malformed URLs.
func TestParseS3URL(t *testing.T) {
	t.Parallel()

	bucket, key, err := parseS3URL("s3://firmware/PB626/cr3-pb-update.zip")
	require.NoError(t, err)
	require.Equal(t, "firmware", bucket)
	require.Equal(t, "PB626/cr3-pb-update.zip", key)

	for _, raw := range []string{"s3://firmware", "s3:///key", "https://firmware/key"} {
		_, _, err = parseS3URL(raw)
		require.ErrorIs(t, err, errInvalidS3URL, raw)
	}
}
