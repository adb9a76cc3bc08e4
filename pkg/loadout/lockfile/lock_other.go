//go:build !unix

package lockfile

import (
	"fmt"
	"os"
)

// acquire creates the lock file exclusively. Without flock semantics a
// dead holder leaves the file behind, so on contention the recorded PID
// is probed and a stale lock is stolen once.
func acquire(path string) (*Lock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			return &Lock{path: path, file: f}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("opening lock file: %w", err)
		}

		pid, ok := readPID(path)
		if ok && processAlive(pid) {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, pid)
		}

		// Stale lock from a dead process
		logger.Warn("removing stale lock file", "path", path, "stale_pid", pid)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale lock: %w", err)
		}
	}
	return nil, ErrLocked
}

func release(*os.File) error { return nil }

// processAlive checks whether a process with the given PID exists.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On non-unix platforms FindProcess fails for dead processes, so
	// reaching here means the process handle was obtainable.
	_ = process
	return true
}
