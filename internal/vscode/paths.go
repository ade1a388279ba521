// Package vscode locates the editor's configuration artifacts on disk.
//
// Two files matter: the key/value state store (state.vscdb) and the
// preferences document (storage.json), both under the globalStorage
// directory of the per-user configuration root. The root moves per OS;
// everything below it is fixed.
package vscode

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Paths holds the resolved locations of the editor's configuration artifacts.
type Paths struct {
	UserData    string `json:"user_data"`    // per-user configuration root
	StateDB     string `json:"state_db"`     // key/value state store
	StorageJSON string `json:"storage_json"` // preferences document
}

// Detect resolves the editor paths for the current OS and user.
func Detect() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return ForPlatform(runtime.GOOS, home), nil
}

// ForPlatform resolves the editor paths under the given home directory for
// a GOOS value. Split out from Detect so tests can cover every OS family.
func ForPlatform(goos, home string) Paths {
	var userData string
	switch goos {
	case "windows":
		userData = filepath.Join(home, "AppData", "Roaming", "Code", "User")
	case "darwin":
		userData = filepath.Join(home, "Library", "Application Support", "Code", "User")
	default:
		userData = filepath.Join(home, ".config", "Code", "User")
	}
	return Paths{
		UserData:    userData,
		StateDB:     filepath.Join(userData, "globalStorage", "state.vscdb"),
		StorageJSON: filepath.Join(userData, "globalStorage", "storage.json"),
	}
}

// GlobalStorage returns the directory where backup artifacts are created
// and trimmed. It follows the state store so path overrides keep backups
// next to the files they copy.
func (p Paths) GlobalStorage() string {
	if p.StateDB != "" {
		return filepath.Dir(p.StateDB)
	}
	return filepath.Join(p.UserData, "globalStorage")
}

// HasStateDB reports whether the state store exists.
func (p Paths) HasStateDB() bool {
	return fileExists(p.StateDB)
}

// HasStorageJSON reports whether the preferences document exists.
func (p Paths) HasStorageJSON() bool {
	return fileExists(p.StorageJSON)
}

// Valid reports whether both target files exist.
func (p Paths) Valid() bool {
	return p.HasStateDB() && p.HasStorageJSON()
}

// StatusMessage returns a human-readable summary of what was found.
func (p Paths) StatusMessage() string {
	db, store := p.HasStateDB(), p.HasStorageJSON()
	switch {
	case db && store:
		return "editor installation complete and ready"
	case db:
		return "editor found but storage.json missing"
	case store:
		return "editor found but state database missing"
	default:
		return "editor not detected on this system"
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ExecutableCandidates returns the fixed per-OS search list for the editor
// binary. On Windows the PATH lookup is consulted first.
func ExecutableCandidates(goos, home string) []string {
	switch goos {
	case "windows":
		candidates := []string{
			filepath.Join(home, "AppData", "Local", "Programs", "Microsoft VS Code", "Code.exe"),
			`C:\Program Files\Microsoft VS Code\Code.exe`,
			`C:\Program Files (x86)\Microsoft VS Code\Code.exe`,
		}
		if p, err := exec.LookPath("code"); err == nil {
			candidates = append([]string{p}, candidates...)
		}
		return candidates
	case "darwin":
		return []string{
			"/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code",
			"/usr/local/bin/code",
		}
	default:
		return []string{
			"/usr/bin/code",
			"/usr/local/bin/code",
			filepath.Join(home, ".local", "bin", "code"),
			"/snap/bin/code",
		}
	}
}

// Executable returns the first existing candidate for the current OS, or ""
// when none is installed.
func Executable() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, candidate := range ExecutableCandidates(runtime.GOOS, home) {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}
