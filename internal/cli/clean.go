package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/internal/service"
)

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove plugin rows from the editor state store",
		Long: `Remove every row whose key contains the plugin marker from the
editor's key/value state store.

The store is copied to a sibling .backup file first; if that copy fails no
mutation is attempted. Zero matching rows is a success, not an error.

Examples:
  codesweep clean
  codesweep clean --state-db /tmp/state.vscdb --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(rootOpts, cmd)
		},
	}
	return cmd
}

func runClean(opts *RootOptions, cmd *cobra.Command) error {
	svc, _, err := buildService(opts)
	if err != nil {
		return err
	}
	formatter := newFormatter(opts, cmd)

	slog.Debug("cleaning state store", "path", svc.Paths().StateDB)
	res, err := submit("clean", func() service.Result {
		return svc.CleanStateDB(cmd.Context())
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run clean operation", err)
	}

	if formatter.JSON() {
		if res.Success {
			if err := formatter.Success(res); err != nil {
				return err
			}
		} else if err := formatter.Error("E_CLEAN", res.Message, res.Error); err != nil {
			return err
		}
	} else {
		writeResult(formatter.Writer, "clean", res)
	}

	if !res.Success {
		return Silent(ExitFailure)
	}
	return nil
}
