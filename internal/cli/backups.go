package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BackupsOptions holds flags for the backups command.
type BackupsOptions struct {
	*RootOptions
	Trim bool
}

// backupsReport is the JSON payload for the backups command.
type backupsReport struct {
	Backups []backupEntry `json:"backups"`
	Removed int           `json:"removed,omitempty"`
}

type backupEntry struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// NewBackupsCommand creates the backups command.
func NewBackupsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List or trim backup files",
		Long: `List the backup files created by past mutations, newest first.

With --trim, delete all but the configured number of most recent backups
(backup_keep in the config file, default 5). This is the only way backups
are ever deleted.

Examples:
  codesweep backups
  codesweep backups --trim`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackups(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Trim, "trim", false, "delete all but the most recent backups")

	return cmd
}

func runBackups(opts *BackupsOptions, cmd *cobra.Command) error {
	svc, _, err := buildService(opts.RootOptions)
	if err != nil {
		return err
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	removed := 0
	if opts.Trim {
		if removed, err = svc.TrimBackups(); err != nil {
			return WrapExitError(ExitCommandError, "failed to trim backups", err)
		}
	}

	infos, err := svc.Backups()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list backups", err)
	}

	if formatter.JSON() {
		report := backupsReport{Backups: []backupEntry{}, Removed: removed}
		for _, info := range infos {
			report.Backups = append(report.Backups, backupEntry{
				Path:     info.Path,
				Size:     info.Size,
				Modified: info.Modified.UTC().Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		return formatter.Success(report)
	}

	w := formatter.Writer
	if opts.Trim {
		fmt.Fprintf(w, "removed %d old backup(s)\n", removed)
	}
	if len(infos) == 0 {
		fmt.Fprintln(w, "no backups found")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(w, "%s  %d bytes  %s\n",
			info.Modified.Format("2006-01-02 15:04:05"), info.Size, info.Path)
	}
	return nil
}
