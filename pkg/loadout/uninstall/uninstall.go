// Package uninstall deletes manifest-tracked files that also satisfy the
// namespace rules, optionally after a dry-run preview and a backup
// snapshot.
//
// Both conditions are required before any path is touched: listed in the
// manifest AND inside the managed namespace. Either failing means the
// path is left alone: fail closed, not fail open.
package uninstall

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/loadout/pkg/loadout/logging"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/scope"
)

var logger = logging.Get("uninstall")

// Action is one planned file removal.
type Action struct {
	RelPath string `json:"relative_path"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
}

// Skip is a manifest entry the plan refuses to touch, with the reason.
type Skip struct {
	RelPath string `json:"relative_path"`
	Reason  string `json:"reason"`
}

// Plan is the computed action set. A dry run reports it; a real run
// executes exactly it, so the predicted and actual path sets coincide.
type Plan struct {
	Remove  []Action `json:"remove"`
	Skipped []Skip   `json:"skipped,omitempty"`
}

// FileError records one failed removal.
type FileError struct {
	RelPath string
	Err     error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.RelPath, e.Err)
}

// Result is the outcome of an executed uninstall.
type Result struct {
	Removed    []string
	Failed     []FileError
	PrunedDirs []string
	BackupPath string
}

// Options parameterizes one uninstall run.
type Options struct {
	// Backup copies each candidate into a timestamped snapshot before
	// deletion.
	Backup bool

	// BackupDir is the snapshot root. Required when Backup is set.
	BackupDir string
}

// Uninstaller removes a managed installation.
type Uninstaller struct {
	rules    manifest.Rules
	strategy Strategy
}

// New creates an uninstaller. A nil strategy deletes permanently.
func New(rules manifest.Rules, strategy Strategy) *Uninstaller {
	if strategy == nil {
		strategy = Permanent{}
	}
	return &Uninstaller{rules: rules, strategy: strategy}
}

// BuildPlan filters manifest entries to those that may be deleted.
// Entries outside the namespace are skipped and reported; all manifest
// entries should already be namespaced, so a skip indicates a tampered
// manifest.
func (u *Uninstaller) BuildPlan(root string, mf *manifest.Manifest) *Plan {
	plan := &Plan{}

	for _, e := range mf.Entries {
		if !u.rules.Contains(e.RelativePath) {
			plan.Skipped = append(plan.Skipped, Skip{
				RelPath: e.RelativePath,
				Reason:  "outside managed namespace",
			})
			continue
		}

		abs, err := scope.Join(root, filepath.FromSlash(e.RelativePath))
		if err != nil {
			plan.Skipped = append(plan.Skipped, Skip{
				RelPath: e.RelativePath,
				Reason:  err.Error(),
			})
			continue
		}

		plan.Remove = append(plan.Remove, Action{
			RelPath: e.RelativePath,
			Path:    abs,
			Size:    e.Size,
		})
	}

	return plan
}

// Run executes the plan: optional backup, file deletion, empty managed
// directory pruning, and finally manifest removal.
//
// A failure on one file does not block removal of the others; the result
// reports exactly which paths succeeded and which failed. The manifest is
// deleted only when every removal succeeded, so a partial uninstall stays
// diagnosable.
func (u *Uninstaller) Run(root string, mgr *manifest.Manager, plan *Plan, opts Options) (*Result, error) {
	res := &Result{}

	if opts.Backup && len(plan.Remove) > 0 {
		snapshot, err := writeBackup(opts.BackupDir, plan.Remove)
		if err != nil {
			return res, fmt.Errorf("writing backup: %w", err)
		}
		res.BackupPath = snapshot
		logger.Info("backup written", "path", snapshot, "files", len(plan.Remove))
	}

	for _, a := range plan.Remove {
		if _, err := os.Lstat(a.Path); err != nil {
			if os.IsNotExist(err) {
				// Already absent counts as removed
				res.Removed = append(res.Removed, a.RelPath)
				continue
			}
			res.Failed = append(res.Failed, FileError{RelPath: a.RelPath, Err: err})
			continue
		}

		if err := u.strategy.Remove(a.Path); err != nil {
			res.Failed = append(res.Failed, FileError{RelPath: a.RelPath, Err: err})
			logger.Error("removal failed", "file", a.RelPath, "error", err)
			continue
		}
		res.Removed = append(res.Removed, a.RelPath)
	}

	res.PrunedDirs = u.pruneEmptyDirs(root, plan.Remove)

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%d of %d files could not be removed", len(res.Failed), len(plan.Remove))
	}

	if err := mgr.Delete(); err != nil {
		return res, fmt.Errorf("removing manifest: %w", err)
	}

	logger.Info("uninstall complete", "root", root, "removed", len(res.Removed), "pruned_dirs", len(res.PrunedDirs))
	return res, nil
}

// pruneEmptyDirs removes directories that held exclusively managed files,
// deepest first. os.Remove refuses non-empty directories, so a directory
// containing any user file survives untouched.
func (u *Uninstaller) pruneEmptyDirs(root string, removed []Action) []string {
	seen := make(map[string]struct{})
	for _, a := range removed {
		dir := filepath.Dir(filepath.FromSlash(a.RelPath))
		for dir != "." && dir != string(filepath.Separator) {
			seen[dir] = struct{}{}
			dir = filepath.Dir(dir)
		}
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		// Only prune inside the managed namespace
		slash := filepath.ToSlash(d) + "/"
		for _, prefix := range u.rules.Prefixes() {
			if strings.HasPrefix(slash, prefix) {
				dirs = append(dirs, d)
				break
			}
		}
	}
	// Deepest first
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	var pruned []string
	for _, d := range dirs {
		abs, err := scope.Join(root, d)
		if err != nil {
			continue
		}
		if err := os.Remove(abs); err == nil {
			pruned = append(pruned, filepath.ToSlash(d))
		}
	}

	// Top-level namespace directories themselves
	for _, prefix := range u.rules.Prefixes() {
		abs, err := scope.Join(root, filepath.FromSlash(strings.TrimSuffix(prefix, "/")))
		if err != nil {
			continue
		}
		if err := os.Remove(abs); err == nil {
			pruned = append(pruned, strings.TrimSuffix(prefix, "/"))
		}
	}

	return pruned
}
