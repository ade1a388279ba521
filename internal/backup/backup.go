// Package backup implements the mandatory pre-mutation copy step and the
// retention pass over the copies it leaves behind.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Suffix is the literal token appended to a target's full name (after its
// extension) to derive the backup path. Collisions overwrite silently.
const Suffix = ".backup"

// DefaultKeep is the retention count used when trimming old backups.
const DefaultKeep = 5

// PathFor derives the backup path for a target file.
func PathFor(target string) string {
	return target + Suffix
}

// Create copies target to its derived backup path, overwriting any previous
// backup. The copy must exist and be non-empty before a mutation may
// proceed, so an empty result is reported as an error.
func Create(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("stat target: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("target %s is a directory", target)
	}

	dst := PathFor(target)
	if err := copyFile(target, dst, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("copy %s to %s: %w", target, dst, err)
	}

	written, err := os.Stat(dst)
	if err != nil {
		return "", fmt.Errorf("stat backup: %w", err)
	}
	if written.Size() == 0 {
		return "", fmt.Errorf("backup %s is empty", dst)
	}
	return dst, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Info describes one backup artifact.
type Info struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// List returns the backup files directly under dir, newest first. A missing
// directory yields an empty list, not an error.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list backups: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), Suffix) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Path:     filepath.Join(dir, entry.Name()),
			Name:     entry.Name(),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Modified.After(infos[j].Modified)
	})
	return infos, nil
}

// Trim deletes all but the keep most recently modified backups under dir and
// returns the number removed. This is the only code path that ever deletes a
// backup.
func Trim(dir string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	infos, err := List(dir)
	if err != nil {
		return 0, err
	}
	if len(infos) <= keep {
		return 0, nil
	}

	removed := 0
	for _, info := range infos[keep:] {
		if err := os.Remove(info.Path); err == nil {
			removed++
		}
	}
	return removed, nil
}
