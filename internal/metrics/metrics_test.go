package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/ota-updater/internal/service/ota"
)

func TestRecorder_ObserveOutcome(t *testing.T) {
	t.Parallel()

	r := NewRecorder()

	r.ObserveOutcome(&ota.Outcome{Kind: ota.OutcomeInstalled}, time.Second)
	r.ObserveOutcome(&ota.Outcome{Kind: ota.OutcomeUpToDate, Err: ota.ErrNoNewVersion}, time.Second)
	r.ObserveOutcome(&ota.Outcome{Kind: ota.OutcomeUpToDate, Err: ota.ErrNoNewVersion}, time.Second)
	r.ObserveOutcome(&ota.Outcome{Kind: ota.OutcomeNotAvailableForDevice, Err: ota.ErrNoLinkedDevice}, time.Second)
	r.ObserveOutcome(nil, time.Second)

	require.InDelta(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues(string(ota.OutcomeInstalled))), 0)
	require.InDelta(t, 2.0, testutil.ToFloat64(r.outcomes.WithLabelValues(string(ota.OutcomeUpToDate))), 0)
	require.InDelta(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues(ota.KindNoLinkedDevice.String())), 0)
	require.InDelta(t, 0.0, testutil.ToFloat64(r.failures.WithLabelValues(ota.KindNoNewVersion.String())), 0)
	require.Equal(t, 1, testutil.CollectAndCount(r.duration))
	require.Positive(t, testutil.ToFloat64(r.lastRun))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveOutcome(&ota.Outcome{Kind: ota.OutcomeNetworkUnavailable, Err: ota.ErrNetworkUnavailable}, time.Second)

	path := filepath.Join(t.TempDir(), "ota-updater.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	require.True(t, strings.Contains(text, `ota_updater_runs_total{outcome="network_unavailable"} 1`), text)
	require.True(t, strings.Contains(text, `ota_updater_failures_total{kind="network_unavailable"} 1`), text)
}
