package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
	"github.com/oshokin/ota-updater/internal/metrics"
	"github.com/oshokin/ota-updater/internal/service/common"
	"github.com/oshokin/ota-updater/internal/service/installer"
	"github.com/oshokin/ota-updater/internal/service/ota"
	"github.com/oshokin/ota-updater/internal/version"
)

// Options are inputs accepted by the updater entry points.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// MarkerPath overrides the location of the run marker.
	MarkerPath string
	// Reporter receives progress and messages; logs when nil.
	Reporter ota.Reporter
	// Fs holds the download directory, device model file and run marker; the OS filesystem when nil.
	Fs afero.Fs
}

// runner holds the collaborators built for one invocation.
type runner struct {
	cfg       *config.Config
	fs        afero.Fs
	reporter  ota.Reporter
	transport *common.Router
	online    ota.Connectivity
}

// Run executes a full update run and returns its terminal outcome.
// The error is reserved for setup failures; a negative outcome is not an error.
func Run(ctx context.Context, opts *Options) (*ota.Outcome, error) {
	ctx = logger.WithName(ctx, "ota-updater")
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	if opts == nil {
		opts = new(Options)
	}

	r, err := newRunner(opts)
	if err != nil {
		return nil, err
	}

	marker := NewMarker(r.fs, opts.MarkerPath)
	if err = marker.Acquire(ctx); err != nil {
		return nil, err
	}

	defer marker.Release(ctx)

	recorder := metrics.NewRecorder()
	orchestrator := ota.NewOrchestrator(r.cfg, ota.Dependencies{
		Connectivity:   r.online,
		Fetcher:        r.transport,
		Devices:        common.NewDeviceModelSource(r.fs, r.cfg),
		Installer:      installer.New(r.cfg, r.fs, r.transport, r.reporter),
		Reporter:       r.reporter,
		CurrentVersion: version.Short(),
	})

	started := time.Now()
	outcome := orchestrator.Run(ctx)

	recorder.ObserveOutcome(outcome, time.Since(started))
	r.writeMetrics(ctx, recorder)

	logger.InfoKV(ctx, "Updater completed", "outcome", outcome.Kind)

	return outcome, nil
}

// Check reports whether a newer version is published.
func Check(ctx context.Context, opts *Options) (bool, error) {
	ctx = logger.WithName(ctx, "ota-updater")

	r, err := newRunner(opts)
	if err != nil {
		return false, err
	}

	oracle := ota.NewVersionOracle(r.cfg, r.online, r.transport, version.Short())

	return oracle.IsNewVersionAvailable(ctx), nil
}

// Validate checks the package already present in the download directory.
func Validate(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "ota-updater")

	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	return ota.NewPackageValidator(r.cfg, r.fs, r.reporter).Validate(ctx)
}

// newRunner loads settings and builds transports and connectivity.
func newRunner(opts *Options) (*runner, error) {
	if opts == nil {
		opts = new(Options)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	r := &runner{
		cfg:      cfg,
		fs:       opts.Fs,
		reporter: opts.Reporter,
	}

	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}

	if r.reporter == nil {
		r.reporter = ota.LogReporter{}
	}

	if r.transport, err = newTransport(cfg); err != nil {
		return nil, err
	}

	if r.online, err = common.NewConnectivityForConfig(cfg); err != nil {
		return nil, fmt.Errorf("build connectivity check: %w", err)
	}

	return r, nil
}

// newTransport routes http(s) to the HTTP client and s3 to MinIO when configured.
func newTransport(cfg *config.Config) (*common.Router, error) {
	httpClient := common.NewClient(common.WithCallTimeout(cfg.Timeout))

	router := common.NewRouter().
		Handle("http", httpClient).
		Handle("https", httpClient)

	if cfg.S3.Endpoint == "" {
		return router, nil
	}

	s3Client, err := common.NewS3Client(&cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("build s3 client: %w", err)
	}

	return router.Handle(config.SchemeS3, s3Client), nil
}

func (r *runner) writeMetrics(ctx context.Context, recorder *metrics.Recorder) {
	if r.cfg.MetricsFile == "" {
		return
	}

	if err := recorder.WriteTextfile(r.cfg.MetricsFile); err != nil {
		logger.WarnKV(ctx, "Unable to write metrics", "error", err)
	}
}
