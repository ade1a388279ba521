// Package service orchestrates the backup-then-mutate sequence for each
// target and aggregates the typed results the presentation layer consumes.
//
// Dependencies are passed explicitly: a Service is built from one resolved
// set of paths, and store/document accessors are constructed per call so
// no handle outlives an operation.
package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/codesweep/codesweep/internal/backup"
	"github.com/codesweep/codesweep/internal/process"
	"github.com/codesweep/codesweep/internal/statedb"
	"github.com/codesweep/codesweep/internal/telemetry"
	"github.com/codesweep/codesweep/internal/vscode"
)

// restartSettle is the pause between stopping the editor and relaunching
// it, giving the old processes time to release their files.
const restartSettle = 3 * time.Second

// Service coordinates operations against one resolved set of paths.
type Service struct {
	paths  vscode.Paths
	keep   int // backup retention count
	editor process.Lifecycle
	sleep  func(time.Duration)
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	// BackupKeep is the retention count for TrimBackups.
	BackupKeep int

	// Editor overrides the process lifecycle boundary, mainly for tests.
	Editor process.Lifecycle
}

// New builds a Service for the given paths.
func New(paths vscode.Paths, opts Options) *Service {
	keep := opts.BackupKeep
	if keep <= 0 {
		keep = backup.DefaultKeep
	}
	editor := opts.Editor
	if editor == nil {
		editor = process.NewEditor(vscode.Executable)
	}
	return &Service{paths: paths, keep: keep, editor: editor, sleep: time.Sleep}
}

// Paths returns the resolved target locations this Service operates on.
func (s *Service) Paths() vscode.Paths {
	return s.paths
}

// CleanStateDB removes third-party plugin rows from the state store:
// backup, count, delete in one transaction. Zero matching rows is a
// success with EntriesAffected 0.
func (s *Service) CleanStateDB(ctx context.Context) Result {
	path := s.paths.StateDB
	if _, err := os.Stat(path); err != nil {
		return failure("state store not found", fmt.Errorf("stat %s: %w", path, err))
	}

	backupPath, err := backup.Create(path)
	if err != nil {
		return failure("failed to back up state store", err)
	}

	db, err := statedb.Open(path)
	if err != nil {
		return failure("failed to open state store", err)
	}
	defer db.Close()

	count, err := db.CountMatching(ctx)
	if err != nil {
		r := failure("failed to inspect state store", err)
		r.BackupPath = backupPath
		return r
	}
	if count == 0 {
		return Result{
			Success:    true,
			Message:    "no plugin entries found",
			BackupPath: backupPath,
		}
	}

	removed, err := db.DeleteMatching(ctx)
	if err != nil {
		r := failure("failed to remove plugin entries", err)
		r.BackupPath = backupPath
		return r
	}
	return Result{
		Success:         true,
		Message:         fmt.Sprintf("removed %d plugin entries", removed),
		EntriesAffected: int(removed),
		BackupPath:      backupPath,
	}
}

// RandomizeTelemetry replaces the two identifier fields in the preferences
// document. When pair is nil a fresh random pair is generated. The old pair
// is read first purely for reporting.
func (s *Service) RandomizeTelemetry(pair *telemetry.IdentifierPair) TelemetryResult {
	path := s.paths.StorageJSON
	if _, err := os.Stat(path); err != nil {
		return TelemetryResult{
			Result: failure("preferences document not found", fmt.Errorf("stat %s: %w", path, err)),
		}
	}

	oldPair := telemetry.ReadCurrent(path)

	var newPair telemetry.IdentifierPair
	if pair != nil {
		newPair = *pair
	} else {
		generated, err := telemetry.Generate()
		if err != nil {
			return TelemetryResult{
				Result:  failure("failed to generate identifiers", err),
				OldPair: oldPair,
			}
		}
		newPair = generated
	}

	backupPath, err := backup.Create(path)
	if err != nil {
		return TelemetryResult{
			Result:  failure("failed to back up preferences document", err),
			OldPair: oldPair,
		}
	}

	if err := telemetry.Rewrite(path, newPair); err != nil {
		// The backup stays in place for manual recovery.
		r := failure("failed to update preferences document", err)
		r.BackupPath = backupPath
		return TelemetryResult{Result: r, OldPair: oldPair}
	}

	return TelemetryResult{
		Result: Result{
			Success:         true,
			Message:         "telemetry identifiers randomized",
			EntriesAffected: 2, // the two identifier fields
			BackupPath:      backupPath,
		},
		OldPair: oldPair,
		NewPair: &newPair,
	}
}

// RunAll invokes both mutations independently, skipping either whose target
// file is absent, and aggregates: overall success iff every invoked
// operation succeeded.
func (s *Service) RunAll(ctx context.Context) RunAllResult {
	var out RunAllResult
	if s.paths.HasStateDB() {
		r := s.CleanStateDB(ctx)
		out.Database = &r
	}
	if s.paths.HasStorageJSON() {
		r := s.RandomizeTelemetry(nil)
		out.Telemetry = &r
	}

	dbOK := out.Database == nil || out.Database.Success
	telOK := out.Telemetry == nil || out.Telemetry.Success
	out.OverallSuccess = dbOK && telOK
	return out
}

// Capabilities derives the advisory operation flags from target existence.
func (s *Service) Capabilities() Capabilities {
	db, doc := s.paths.HasStateDB(), s.paths.HasStorageJSON()
	return Capabilities{
		CanCleanDatabase:   db,
		CanModifyTelemetry: doc,
		CanRunAll:          db || doc,
	}
}

// Status gathers the installation snapshot: paths, capabilities, and
// read-only store/document information where available.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		Installed:    s.paths.Valid(),
		Message:      s.paths.StatusMessage(),
		Paths:        s.paths,
		Capabilities: s.Capabilities(),
	}
	if s.paths.HasStateDB() {
		if info, err := statedb.Inspect(ctx, s.paths.StateDB); err == nil {
			st.Database = &info
		}
	}
	if s.paths.HasStorageJSON() {
		info := telemetry.Inspect(s.paths.StorageJSON)
		st.Telemetry = &info
	}
	return st
}

// Backups lists the backup artifacts under the global storage directory,
// newest first.
func (s *Service) Backups() ([]backup.Info, error) {
	return backup.List(s.paths.GlobalStorage())
}

// TrimBackups removes all but the configured number of most recent backups
// and returns how many were deleted.
func (s *Service) TrimBackups() (int, error) {
	return backup.Trim(s.paths.GlobalStorage(), s.keep)
}

// Restart stops the editor if it is running, waits a settle period, and
// relaunches it, optionally opening a workspace. When the editor was not
// running it is simply started.
func (s *Service) Restart(workspace string) RestartResult {
	res := RestartResult{WasRunning: s.editor.IsRunning()}

	if !res.WasRunning {
		res.Started = s.editor.Start(workspace)
		if res.Started {
			res.Success = true
			res.Message = "editor started"
		} else {
			res.Message = "failed to start editor"
		}
		return res
	}

	res.Closed = s.editor.Stop()
	if !res.Closed {
		res.Message = "failed to stop editor processes"
		return res
	}

	s.sleep(restartSettle)

	res.Started = s.editor.Start(workspace)
	if res.Started {
		res.Success = true
		res.Message = "editor restarted"
	} else {
		res.Message = "editor stopped but failed to relaunch"
	}
	return res
}
