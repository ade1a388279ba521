// Package process is the OS boundary for editor lifecycle control. The
// mutation core only depends on the Lifecycle interface; the gopsutil
// implementation here is a convenience, not part of the core design.
package process

import (
	"os/exec"
	"runtime"
	"strings"
	"time"

	gops "github.com/shirou/gopsutil/v4/process"
)

// Lifecycle is what the orchestrator needs from the host: detect the editor,
// stop it best-effort, and relaunch it.
type Lifecycle interface {
	IsRunning() bool
	Stop() bool
	Start(workspace string) bool
}

// Settle delays applied after signaling processes, before relaunch is safe.
const (
	settleDarwin  = 3 * time.Second
	settleDefault = 2 * time.Second
)

// Editor controls the editor process via the host process table.
type Editor struct {
	goos     string
	execPath func() string       // locates the editor binary, "" if absent
	sleep    func(time.Duration) // injectable for tests
}

// NewEditor returns a Lifecycle for the current OS. execPath locates the
// editor binary for Start.
func NewEditor(execPath func() string) *Editor {
	return &Editor{goos: runtime.GOOS, execPath: execPath, sleep: time.Sleep}
}

// nameTokens is the fixed per-OS list of lowercase substrings matched
// case-insensitively against process names.
func nameTokens(goos string) []string {
	switch goos {
	case "windows":
		return []string{"code.exe", "code-tunnel.exe", "code-insiders.exe"}
	case "darwin":
		return []string{"code", "visual studio code", "electron"}
	default:
		return []string{"code", "code-insiders", "code-oss", "codium", "vscodium"}
	}
}

func (e *Editor) matches(p *gops.Process) bool {
	name, err := p.Name()
	if err != nil || name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, token := range nameTokens(e.goos) {
		if strings.Contains(lower, token) {
			return true
		}
	}
	// On macOS the app bundle shows up as a generic Electron helper, so the
	// executable path is checked as well.
	if e.goos == "darwin" {
		if exe, err := p.Exe(); err == nil &&
			strings.Contains(strings.ToLower(exe), "visual studio code") {
			return true
		}
	}
	return false
}

// IsRunning reports whether any editor process is alive.
func (e *Editor) IsRunning() bool {
	procs, err := gops.Processes()
	if err != nil {
		return false
	}
	for _, p := range procs {
		if e.matches(p) {
			return true
		}
	}
	return false
}

// Stop terminates every editor process, escalating to a kill when the
// terminate is refused, then waits a fixed settle period. Returns true if
// at least one process was signaled.
func (e *Editor) Stop() bool {
	procs, err := gops.Processes()
	if err != nil {
		return false
	}

	stopped := 0
	for _, p := range procs {
		if !e.matches(p) {
			continue
		}
		if err := p.Terminate(); err != nil {
			if err := p.Kill(); err != nil {
				continue
			}
		}
		stopped++
	}

	if stopped > 0 {
		settle := settleDefault
		if e.goos == "darwin" {
			settle = settleDarwin
		}
		e.sleep(settle)
	}
	return stopped > 0
}

// Start launches the editor detached, optionally opening a workspace.
// Returns false when no editor binary can be located or the launch fails.
func (e *Editor) Start(workspace string) bool {
	exe := e.execPath()
	if exe == "" {
		return false
	}

	var cmd *exec.Cmd
	if e.goos == "darwin" && strings.HasSuffix(exe, ".app") {
		args := []string{exe}
		if workspace != "" {
			args = append(args, "--args", workspace)
		}
		cmd = exec.Command("open", args...)
	} else if workspace != "" {
		cmd = exec.Command(exe, workspace)
	} else {
		cmd = exec.Command(exe)
	}

	if err := cmd.Start(); err != nil {
		return false
	}
	// The editor must outlive this process.
	_ = cmd.Process.Release()
	return true
}
