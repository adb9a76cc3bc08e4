package health

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
)

// debounceWindow coalesces bursts of filesystem events into one re-check.
const debounceWindow = 500 * time.Millisecond

// Watch re-runs the health check whenever something under root changes,
// invoking onReport with each fresh report (including one immediately on
// start). It blocks until ctx is cancelled.
func (c *Checker) Watch(ctx context.Context, root string, mgr *manifest.Manager, expectedVersion string, onReport func(*Report)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addWatchTree(fsw, root); err != nil {
		return err
	}

	runCheck := func() {
		report, err := c.Check(root, mgr, expectedVersion)
		if err != nil {
			logger.Error("watch re-check failed", "error", err)
			return
		}
		onReport(report)
	}
	runCheck()

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// New directories join the watch so nested changes keep
			// arriving
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addWatchTree(fsw, event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-fire:
			runCheck()
		}
	}
}

// addWatchTree adds root and all subdirectories to the watcher.
// Symlinks are not followed to avoid loops.
func addWatchTree(fsw *fsnotify.Watcher, root string) error {
	info, err := os.Lstat(root)
	if err != nil || !info.IsDir() {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
