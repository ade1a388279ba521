package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/internal/service"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show editor installation and target state",
		Long: `Show which target files were found, the advisory operation
capabilities derived from their existence, and read-only snapshots of the
state store and the telemetry identifiers.

Examples:
  codesweep status
  codesweep status --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	svc, _, err := buildService(opts)
	if err != nil {
		return err
	}
	formatter := newFormatter(opts, cmd)

	st := svc.Status(cmd.Context())

	if formatter.JSON() {
		return formatter.Success(st)
	}
	writeStatus(formatter.Writer, st)
	return nil
}

func writeStatus(w io.Writer, st service.Status) {
	fmt.Fprintln(w, st.Message)
	fmt.Fprintf(w, "  state store:  %s\n", presence(st.Paths.StateDB, st.Capabilities.CanCleanDatabase))
	fmt.Fprintf(w, "  preferences:  %s\n", presence(st.Paths.StorageJSON, st.Capabilities.CanModifyTelemetry))

	if st.Database != nil {
		fmt.Fprintf(w, "  store entries: %d total, %d matching plugin marker\n",
			st.Database.TotalEntries, st.Database.MatchingEntries)
	}
	if st.Telemetry != nil && st.Telemetry.HasIdentifiers {
		fmt.Fprintf(w, "  machine id: %s\n", st.Telemetry.Current.MachineID)
		fmt.Fprintf(w, "  device id:  %s\n", st.Telemetry.Current.DeviceID)
	}
}

func presence(path string, found bool) string {
	if found {
		return path
	}
	return path + " (missing)"
}
