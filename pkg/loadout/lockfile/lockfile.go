// Package lockfile guards an installation root against concurrent
// mutating invocations.
//
// The lock lives inside the root itself so two processes targeting the
// same root contend on the same file regardless of scope flags. Stale
// locks left by a dead process are recovered automatically.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jamesainslie/loadout/pkg/loadout/logging"
)

var logger = logging.Get("lockfile")

// Name is the lock file name inside the installation root.
const Name = ".loadout.lock"

// ErrLocked is returned when another live invocation holds the lock.
var ErrLocked = errors.New("installation root is locked by another loadout invocation")

// Lock is a held installation-root lock.
type Lock struct {
	path string
	file *os.File
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock for root, creating the root if needed.
// It does not block: a live competing holder yields ErrLocked.
func Acquire(root string) (*Lock, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating installation root: %w", err)
	}

	path := filepath.Join(root, Name)
	lock, err := acquire(path)
	if err != nil {
		return nil, err
	}

	// PID is recorded for diagnostics and for stale detection on
	// platforms without flock semantics
	_ = lock.file.Truncate(0)
	_, _ = lock.file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)

	logger.Debug("lock acquired", "path", path)
	return lock, nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	err := release(l.file)
	closeErr := l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)

	if err != nil {
		return err
	}
	return closeErr
}

// readPID parses the holder PID recorded in a lock file.
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
