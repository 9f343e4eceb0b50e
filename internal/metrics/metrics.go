package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/ota-updater/internal/service/ota"
)

// Recorder owns the registry and the update run collectors.
type Recorder struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
	lastRun  prometheus.Gauge
}

// NewRecorder creates and registers the collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ota_updater_runs_total",
				Help: "Total number of update runs by terminal outcome.",
			},
			[]string{"outcome"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ota_updater_failures_total",
				Help: "Total number of classified failures by error kind.",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ota_updater_run_duration_seconds",
				Help:    "Duration of update runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ota_updater_last_run_timestamp_seconds",
				Help: "Unix time the last update run finished.",
			},
		),
	}

	r.registry.MustRegister(r.outcomes, r.failures, r.duration, r.lastRun)

	return r
}

// ObserveOutcome records a finished run that took elapsed.
func (r *Recorder) ObserveOutcome(outcome *ota.Outcome, elapsed time.Duration) {
	if outcome == nil {
		return
	}

	r.outcomes.WithLabelValues(string(outcome.Kind)).Inc()
	r.duration.Observe(elapsed.Seconds())
	r.lastRun.SetToCurrentTime()

	if outcome.Err != nil {
		r.ObserveFailure(outcome.Err)
	}
}

// ObserveFailure counts err under its classified kind.
// Being up to date is not a failure and is not counted.
func (r *Recorder) ObserveFailure(err error) {
	kind := ota.KindOf(err)
	if kind == ota.KindNoNewVersion {
		return
	}

	r.failures.WithLabelValues(kind.String()).Inc()
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile atomically writes every collected metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}

	return nil
}
