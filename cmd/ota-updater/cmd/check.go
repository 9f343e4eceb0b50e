package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/ota-updater/internal/service/updater"
)

var errNoNewVersion = errors.New("no new version available")

// checkCmd only asks the version endpoint whether a newer build exists.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether a newer version is published.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		available, err := updater.Check(ctx, options())
		if err != nil {
			return err
		}

		if !available {
			return errNoNewVersion
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), "A new version is available.")

		return err
	},
}
