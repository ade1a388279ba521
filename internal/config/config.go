// Package config loads the optional YAML settings file. Everything has a
// default; a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/codesweep/codesweep/internal/backup"
)

// Config holds user-tunable settings.
type Config struct {
	// BackupKeep is the retention count for the backup trim pass.
	BackupKeep int `yaml:"backup_keep"`

	// Workspace is opened when the editor is relaunched after a restart.
	Workspace string `yaml:"workspace"`

	// Paths overrides the resolved target locations.
	Paths PathOverrides `yaml:"paths"`
}

// PathOverrides replaces individual resolved paths. Empty fields keep the
// platform defaults.
type PathOverrides struct {
	StateDB     string `yaml:"state_db"`
	StorageJSON string `yaml:"storage_json"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{BackupKeep: backup.DefaultKeep}
}

// Load reads the YAML config at path. A missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.BackupKeep <= 0 {
		cfg.BackupKeep = backup.DefaultKeep
	}
	return cfg, nil
}

// DefaultPath returns the per-OS default config location, or "" when the
// user config directory cannot be resolved.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "codesweep", "config.yaml")
}
