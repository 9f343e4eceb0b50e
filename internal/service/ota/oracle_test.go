package ota

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVersionOracle_LengthAndEquality walks the length bounds and the equality rule.
func TestVersionOracle_LengthAndEquality(t *testing.T) {
	t.Parallel()

	const current = "v1.2.3-pb"

	cases := []struct {
		name    string
		body    string
		want    bool
		errKind Kind
	}{
		{"empty", "", false, KindMalformedVersionResponse},
		{"five bytes", "1.2.3", false, KindMalformedVersionResponse},
		{"six bytes", "v1.2.4", true, KindUnknown},
		{"at max", strings.Repeat("9", 12), true, KindUnknown},
		{"over max", strings.Repeat("9", 13), false, KindMalformedVersionResponse},
		{"same as current", current, false, KindNoNewVersion},
		{"older is still different", "v1.0.0-pb", true, KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			fetcher := &fakeFetcher{bodies: map[string]string{cfg.VersionURL: tc.body}}
			oracle := NewVersionOracle(cfg, &fakeConnectivity{connected: true}, fetcher, current)

			err := oracle.Check(context.Background())
			require.Equal(t, tc.errKind, KindOf(err))
			require.Equal(t, tc.want, oracle.IsNewVersionAvailable(context.Background()))
		})
	}
}

// TestVersionOracle_NoNetwork ensures no query is issued without connectivity.
func TestVersionOracle_NoNetwork(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	fetcher := new(fakeFetcher)
	oracle := NewVersionOracle(cfg, &fakeConnectivity{connected: false}, fetcher, "v1.2.3-pb")

	err := oracle.Check(context.Background())
	require.ErrorIs(t, err, ErrNetworkUnavailable)
	require.False(t, oracle.IsNewVersionAvailable(context.Background()))
	require.Empty(t, fetcher.requests)
}

// TestVersionOracle_FetchErrorIsMalformed treats transport failures as an empty body.
func TestVersionOracle_FetchErrorIsMalformed(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	fetcher := &fakeFetcher{errs: map[string]error{cfg.VersionURL: errTestFetch}}
	oracle := NewVersionOracle(cfg, &fakeConnectivity{connected: true}, fetcher, "v1.2.3-pb")

	require.ErrorIs(t, oracle.Check(context.Background()), ErrMalformedVersionResponse)
	require.Len(t, fetcher.requests, 1)
}
