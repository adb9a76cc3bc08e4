package uninstall

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// timestampFormat names backup snapshot directories. Colons are avoided
// so the names are valid on every filesystem.
const timestampFormat = "2006-01-02T15-04-05Z"

// writeBackup copies every planned file into a timestamped snapshot tree
// under backupRoot, preserving relative structure. It returns the
// snapshot path. Backups are restore-by-copy only, never auto-applied.
func writeBackup(backupRoot string, actions []Action) (string, error) {
	snapshot := filepath.Join(backupRoot, time.Now().UTC().Format(timestampFormat))

	for _, a := range actions {
		dest := filepath.Join(snapshot, filepath.FromSlash(a.RelPath))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", fmt.Errorf("creating backup directory: %w", err)
		}
		if err := copyFile(a.Path, dest); err != nil {
			if os.IsNotExist(err) {
				// Already absent on disk; nothing to preserve
				continue
			}
			return "", fmt.Errorf("backing up %s: %w", a.RelPath, err)
		}
	}

	return snapshot, nil
}

// PruneBackups keeps the newest keep snapshots under backupRoot and
// removes the rest. keep <= 0 disables pruning.
func PruneBackups(backupRoot string, keep int) error {
	if keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(backupRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading backup root: %w", err)
	}

	var snapshots []string
	for _, e := range entries {
		if e.IsDir() {
			snapshots = append(snapshots, e.Name())
		}
	}
	// Timestamp names sort chronologically
	sort.Sort(sort.Reverse(sort.StringSlice(snapshots)))

	for i := keep; i < len(snapshots); i++ {
		_ = os.RemoveAll(filepath.Join(backupRoot, snapshots[i]))
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
