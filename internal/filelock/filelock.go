// Package filelock guards the data directory against concurrent application
// instances and provides atomic file writes for exports and backups.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is a process-level advisory lock on a file. The live-session command
// holds one for the data directory so two instances cannot write the same
// database.
type Lock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock backed by the file at path. The file is created on
// first acquisition.
func New(path string) *Lock {
	return &Lock{flock: flock.New(path), path: path}
}

// TryAcquire attempts to take the lock without blocking. Returns false when
// another process holds it.
func (l *Lock) TryAcquire() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("try lock %s: %w", l.path, err)
	}
	return acquired, nil
}

// Release gives the lock back.
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to path via a temp file and rename, so readers
// never observe a partial file. Rename is atomic on the same filesystem,
// which is why the temp file lives next to the target.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}
