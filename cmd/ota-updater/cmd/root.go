package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/logger"
	"github.com/oshokin/ota-updater/internal/service/updater"
	"github.com/oshokin/ota-updater/internal/version"
)

var (
	errUnknownLogLevel = errors.New("unknown log level")
	errUpdateFailed    = errors.New("update did not complete")
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// markerPath overrides the run marker location.
	markerPath string
	// logLevel is the minimal level of printed log entries.
	logLevel string

	// rootCmd represents the base command for checking, downloading and installing updates.
	rootCmd = &cobra.Command{
		Use:   "ota-updater",
		Short: "Check for and install an over-the-air update for this device.",
		Long: `Checks whether a newer build is published, looks up a package for the
current device model (or its twin device), downloads and validates the
archive, and installs the application binary it contains.

Exits with a non-zero status unless the update was installed or the
device is already up to date.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: applyLogLevel,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			outcome, err := updater.Run(ctx, options())
			if err != nil {
				return err
			}

			if !outcome.Succeeded() {
				return fmt.Errorf("%w: %s in state %s", errUpdateFailed, outcome.Kind, outcome.State)
			}

			return nil
		},
	}
)

// Execute runs the ota-updater CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&markerPath, "marker", updater.MarkerFilename, "path to the run marker file")

	rootCmd.AddCommand(checkCmd, validateCmd)
}

func applyLogLevel(*cobra.Command, []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownLogLevel, logLevel)
	}

	logger.SetLevel(level)

	return nil
}

func options() *updater.Options {
	return &updater.Options{
		ConfigPath: configPath,
		MarkerPath: markerPath,
	}
}

// signalContext ends the command context on SIGTERM or SIGINT.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
}
