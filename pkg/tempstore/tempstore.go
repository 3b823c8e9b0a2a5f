// Package tempstore manages the per-process temporary storage directories
// and their cleanup.
//
// Scratch directories are named osprey-<pid>-<label> under the system temp
// directory. Cleanup renames them with an old- prefix instead of deleting,
// so partial output from an interrupted run stays inspectable without being
// mistaken for a live run's storage.
package tempstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func prefix(pid int) string {
	return fmt.Sprintf("osprey-%d-", pid)
}

// Dir returns (creating it if needed) the scratch directory for label under
// the given process id.
func Dir(pid int, label string) (string, error) {
	dir := filepath.Join(os.TempDir(), prefix(pid)+label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Clean renames every scratch directory belonging to pid so it no longer
// collides with a future run under a recycled process id. It keeps going
// past individual failures and returns the first error encountered.
func Clean(pid int) error {
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		return err
	}
	var firstErr error
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix(pid)) {
			continue
		}
		from := filepath.Join(os.TempDir(), entry.Name())
		to := filepath.Join(os.TempDir(), "old-"+entry.Name())
		if err := os.Rename(from, to); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
