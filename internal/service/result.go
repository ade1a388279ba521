package service

import (
	"github.com/codesweep/codesweep/internal/statedb"
	"github.com/codesweep/codesweep/internal/telemetry"
	"github.com/codesweep/codesweep/internal/vscode"
)

// Result is the uniform outcome of a single mutation. Failures are folded
// in here; operations never return Go errors to their caller.
type Result struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	EntriesAffected int    `json:"entries_affected"`
	BackupPath      string `json:"backup_path,omitempty"`
	Error           string `json:"error,omitempty"`
}

// failure builds a failed Result carrying the underlying error text.
func failure(message string, err error) Result {
	r := Result{Message: message}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// TelemetryResult extends Result with the identifier pairs before and after
// the rewrite. OldPair is nil when the document held no prior identifiers.
type TelemetryResult struct {
	Result
	OldPair *telemetry.IdentifierPair `json:"old_pair,omitempty"`
	NewPair *telemetry.IdentifierPair `json:"new_pair,omitempty"`
}

// RunAllResult aggregates the two mutations. A nil sub-result means the
// operation was skipped because its target file was absent; skipped counts
// as success for aggregation.
type RunAllResult struct {
	Database       *Result          `json:"database,omitempty"`
	Telemetry      *TelemetryResult `json:"telemetry,omitempty"`
	OverallSuccess bool             `json:"overall_success"`
}

// Capabilities are derived from target existence alone and are advisory:
// the operations still perform their own existence checks.
type Capabilities struct {
	CanCleanDatabase   bool `json:"can_clean_database"`
	CanModifyTelemetry bool `json:"can_modify_telemetry"`
	CanRunAll          bool `json:"can_run_all"`
}

// RestartResult reports the editor restart sequence.
type RestartResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	WasRunning bool   `json:"was_running"`
	Closed     bool   `json:"closed"`
	Started    bool   `json:"started"`
}

// Status is the aggregated installation snapshot shown by the status
// command.
type Status struct {
	Installed    bool            `json:"installed"`
	Message      string          `json:"message"`
	Paths        vscode.Paths    `json:"paths"`
	Capabilities Capabilities    `json:"capabilities"`
	Database     *statedb.Info   `json:"database,omitempty"`
	Telemetry    *telemetry.Info `json:"telemetry,omitempty"`
}
