package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/ota-updater/internal/config"
	"github.com/oshokin/ota-updater/internal/service/packager"
	"github.com/oshokin/ota-updater/internal/version"
)

var (
	// configPath to the device configuration YAML file.
	configPath string
	// outputDir receives the published tree.
	outputDir string
	// release is the version string published to devices.
	release string
	// devices that get their own package.
	devices []string
	// links from a device model to its twin.
	links map[string]string

	// rootCmd represents the base command for preparing a release for the update server.
	rootCmd = &cobra.Command{
		Use:   "ota-packager [binary]",
		Short: "Prepare update server files for a release.",
		Long: `Wraps the application binary into an update package for every device
model and writes the version, availability and twin-device link files at the
paths the device configuration queries.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath: configPath,
				OutputDir:  outputDir,
				Version:    release,
				BinaryFile: args[0],
				Devices:    devices,
				Links:      links,
			}

			_, err := packager.Run(ctx, options)

			return err
		},
	}
)

// Execute runs the ota-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to device configuration file")
	flags.StringVarP(&outputDir, "output", "o", "publish", "directory receiving the published files")
	flags.StringVarP(&release, "release", "r", version.Short(), "version published to devices")
	flags.StringSliceVarP(&devices, "device", "d", nil, "device model to publish a package for (repeatable)")
	flags.StringToStringVar(&links, "link", nil, "device=twin pairs for models without their own package")
}
