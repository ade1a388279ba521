// Package cli implements the codesweep command surface on cobra.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codesweep/codesweep/internal/config"
	"github.com/codesweep/codesweep/internal/service"
	"github.com/codesweep/codesweep/internal/vscode"
	"github.com/codesweep/codesweep/internal/worker"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Path overrides; empty means use the resolved platform defaults.
	StateDB     string
	StorageJSON string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the codesweep CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "codesweep",
		Short: "Clean plugin state and randomize telemetry identifiers",
		Long: `codesweep edits two local editor configuration artifacts: it removes
third-party plugin rows from the key/value state store and randomizes the
machine/device telemetry identifiers in the preferences document.

Every mutation copies the target file to a sibling .backup path first and
aborts if that copy fails.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.StateDB, "state-db", "", "override the state store path")
	cmd.PersistentFlags().StringVar(&opts.StorageJSON, "storage-json", "", "override the preferences document path")

	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewCleanCommand(opts))
	cmd.AddCommand(NewTelemetryCommand(opts))
	cmd.AddCommand(NewAllCommand(opts))
	cmd.AddCommand(NewBackupsCommand(opts))
	cmd.AddCommand(NewRestartCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// configureLogging routes slog to stderr; verbose raises the level to Debug.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// newFormatter builds the output formatter for a command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// buildService loads the config, resolves the target paths, and applies
// overrides (config first, then flags).
func buildService(opts *RootOptions) (*service.Service, config.Config, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfg, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	paths, err := vscode.Detect()
	if err != nil {
		return nil, cfg, WrapExitError(ExitCommandError, "failed to resolve editor paths", err)
	}
	if cfg.Paths.StateDB != "" {
		paths.StateDB = cfg.Paths.StateDB
	}
	if cfg.Paths.StorageJSON != "" {
		paths.StorageJSON = cfg.Paths.StorageJSON
	}
	if opts.StateDB != "" {
		paths.StateDB = opts.StateDB
	}
	if opts.StorageJSON != "" {
		paths.StorageJSON = opts.StorageJSON
	}

	svc := service.New(paths, service.Options{BackupKeep: cfg.BackupKeep})
	return svc, cfg, nil
}

// submit runs fn through a single-flight runner and blocks for its outcome,
// keeping the one-operation-at-a-time policy at the command boundary.
func submit[T any](name string, fn func() T) (T, error) {
	var zero T
	ch, err := worker.New().Submit(name, func() (any, error) { return fn(), nil })
	if err != nil {
		return zero, err
	}
	out := <-ch
	if out.Err != nil {
		return zero, out.Err
	}
	return out.Value.(T), nil
}
