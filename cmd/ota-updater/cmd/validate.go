package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/ota-updater/internal/service/updater"
)

// validateCmd checks the package already sitting in the download directory.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the downloaded update package.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		if err := updater.Validate(ctx, options()); err != nil {
			return err
		}

		_, err := fmt.Fprintln(cmd.OutOrStdout(), "The update package is valid.")

		return err
	},
}
