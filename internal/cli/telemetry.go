package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/internal/service"
	"github.com/codesweep/codesweep/internal/telemetry"
)

// TelemetryOptions holds flags for the telemetry command.
type TelemetryOptions struct {
	*RootOptions
	MachineID string
	DeviceID  string
}

// NewTelemetryCommand creates the telemetry command.
func NewTelemetryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TelemetryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Randomize the machine/device telemetry identifiers",
		Long: `Replace telemetry.machineId and telemetry.devDeviceId in the editor's
preferences document with fresh random values: a 64-character lowercase hex
machine id and a version-4 UUID device id. Every other field in the
document is preserved.

The document is copied to a sibling .backup file before the rewrite.

Both identifiers may be supplied explicitly with --machine-id and
--device-id; they must be given together and must be well-formed.

Examples:
  codesweep telemetry
  codesweep telemetry --format json
  codesweep telemetry --machine-id <64 hex chars> --device-id <uuid4>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTelemetry(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MachineID, "machine-id", "", "explicit machine id (64 hex chars)")
	cmd.Flags().StringVar(&opts.DeviceID, "device-id", "", "explicit device id (version-4 UUID)")
	cmd.MarkFlagsRequiredTogether("machine-id", "device-id")

	return cmd
}

func runTelemetry(opts *TelemetryOptions, cmd *cobra.Command) error {
	var pair *telemetry.IdentifierPair
	if opts.MachineID != "" || opts.DeviceID != "" {
		candidate := telemetry.IdentifierPair{
			MachineID: opts.MachineID,
			DeviceID:  opts.DeviceID,
		}
		if !candidate.Valid() {
			return NewExitError(ExitCommandError, "supplied identifiers are not well-formed")
		}
		pair = &candidate
	}

	svc, _, err := buildService(opts.RootOptions)
	if err != nil {
		return err
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	slog.Debug("randomizing telemetry identifiers", "path", svc.Paths().StorageJSON)
	res, err := submit("telemetry", func() service.TelemetryResult {
		return svc.RandomizeTelemetry(pair)
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run telemetry operation", err)
	}

	if formatter.JSON() {
		if res.Success {
			if err := formatter.Success(res); err != nil {
				return err
			}
		} else if err := formatter.Error("E_TELEMETRY", res.Message, res.Error); err != nil {
			return err
		}
	} else {
		writeTelemetryResult(formatter.Writer, res)
	}

	if !res.Success {
		return Silent(ExitFailure)
	}
	return nil
}
