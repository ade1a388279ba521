package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/internal/service"
)

// NewAllCommand creates the all command.
func NewAllCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run every applicable operation",
		Long: `Run the state store cleanup and the telemetry randomization as one
pass. Either operation is skipped when its target file is absent; a
skipped operation counts as success. The overall result succeeds only if
every operation that ran succeeded.

Examples:
  codesweep all
  codesweep all --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAll(rootOpts, cmd)
		},
	}
	return cmd
}

func runAll(opts *RootOptions, cmd *cobra.Command) error {
	svc, _, err := buildService(opts)
	if err != nil {
		return err
	}
	formatter := newFormatter(opts, cmd)

	res, err := submit("all", func() service.RunAllResult {
		return svc.RunAll(cmd.Context())
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run operations", err)
	}

	if formatter.JSON() {
		if err := formatter.Success(res); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		if res.Database == nil {
			fmt.Fprintln(w, "clean: skipped (state store absent)")
		} else {
			writeResult(w, "clean", *res.Database)
		}
		if res.Telemetry == nil {
			fmt.Fprintln(w, "telemetry: skipped (preferences document absent)")
		} else {
			writeTelemetryResult(w, *res.Telemetry)
		}
		if res.OverallSuccess {
			fmt.Fprintln(w, "overall: success")
		} else {
			fmt.Fprintln(w, "overall: failed")
		}
	}

	if !res.OverallSuccess {
		return Silent(ExitFailure)
	}
	return nil
}
