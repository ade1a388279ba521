package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/internal/service"
)

// RestartOptions holds flags for the restart command.
type RestartOptions struct {
	*RootOptions
	Workspace string
}

// NewRestartCommand creates the restart command.
func NewRestartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the editor",
		Long: `Stop every running editor process (terminate, escalating to a kill
when refused), wait for the processes to settle, and relaunch the editor.
When the editor is not running it is simply started.

Examples:
  codesweep restart
  codesweep restart --workspace ~/src/project`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestart(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "workspace to open after relaunch")

	return cmd
}

func runRestart(opts *RestartOptions, cmd *cobra.Command) error {
	svc, cfg, err := buildService(opts.RootOptions)
	if err != nil {
		return err
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	workspace := opts.Workspace
	if workspace == "" {
		workspace = cfg.Workspace
	}

	res, err := submit("restart", func() service.RestartResult {
		return svc.Restart(workspace)
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run restart", err)
	}

	if formatter.JSON() {
		if res.Success {
			if err := formatter.Success(res); err != nil {
				return err
			}
		} else if err := formatter.Error("E_RESTART", res.Message, nil); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, res.Message)
	}

	if !res.Success {
		return Silent(ExitFailure)
	}
	return nil
}
