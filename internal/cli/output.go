package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/codesweep/codesweep/internal/service"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // An operation reported failure
	ExitCommandError = 2 // Command error (bad flags, unreadable config, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// Silent returns an ExitError that carries only an exit code, for failures
// already written through the formatter.
func Silent(code int) *ExitError {
	return &ExitError{Code: code}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON envelope for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON reports whether the formatter emits the JSON envelope.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled. When output
// is JSON the message goes to ErrWriter to avoid corrupting the envelope.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// writeResult renders an Operation Result as text.
func writeResult(w io.Writer, label string, res service.Result) {
	if res.Success {
		fmt.Fprintf(w, "%s: %s\n", label, res.Message)
	} else {
		fmt.Fprintf(w, "%s failed: %s\n", label, res.Message)
	}
	if res.EntriesAffected > 0 {
		fmt.Fprintf(w, "  entries affected: %d\n", res.EntriesAffected)
	}
	if res.BackupPath != "" {
		fmt.Fprintf(w, "  backup: %s\n", res.BackupPath)
	}
	if res.Error != "" {
		fmt.Fprintf(w, "  detail: %s\n", res.Error)
	}
}

// writeTelemetryResult renders a telemetry result as text, including the
// identifier pairs when present.
func writeTelemetryResult(w io.Writer, res service.TelemetryResult) {
	writeResult(w, "telemetry", res.Result)
	if res.OldPair != nil {
		fmt.Fprintf(w, "  old machine id: %s\n", res.OldPair.MachineID)
		fmt.Fprintf(w, "  old device id:  %s\n", res.OldPair.DeviceID)
	}
	if res.NewPair != nil {
		fmt.Fprintf(w, "  new machine id: %s\n", res.NewPair.MachineID)
		fmt.Fprintf(w, "  new device id:  %s\n", res.NewPair.DeviceID)
	}
}
