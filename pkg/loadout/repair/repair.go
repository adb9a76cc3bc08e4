// Package repair regenerates missing or corrupted files from the source
// bundle and migrates between directory layouts.
//
// Repair combines the health checker's diagnosis with the installer's
// copy primitive: only failing entries are rewritten, so an intact file
// is never touched.
package repair

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/loadout/pkg/loadout/bundle"
	"github.com/jamesainslie/loadout/pkg/loadout/health"
	"github.com/jamesainslie/loadout/pkg/loadout/installer"
	"github.com/jamesainslie/loadout/pkg/loadout/logging"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/scope"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

var logger = logging.Get("repair")

// Result reports what a repair run did.
type Result struct {
	// Succeeded lists the relative paths re-copied from the bundle.
	Succeeded []string

	// Failed lists per-file repair failures. One failure does not block
	// repair of the others, but the command's exit reflects any.
	Failed []installer.FileError

	// Migrated lists paths moved from the old layout to the new one.
	Migrated []string

	// Unchanged counts manifest entries that needed nothing.
	Unchanged int

	// FreshInstall is true when no usable manifest existed and the
	// repair degraded to a full install.
	FreshInstall bool

	// StructureFixed is true when a layout migration ran to completion.
	StructureFixed bool
}

// Modified returns how many files the repair rewrote or moved.
func (r *Result) Modified() int {
	return len(r.Succeeded) + len(r.Migrated)
}

// Repairer regenerates a broken installation in place.
type Repairer struct {
	installer *installer.Installer
	detector  *structure.Detector
	rules     manifest.Rules
}

// New creates a repairer sharing the installer's copy primitive.
func New(ins *installer.Installer, detector *structure.Detector, rules manifest.Rules) *Repairer {
	return &Repairer{installer: ins, detector: detector, rules: rules}
}

// Repair fixes the installation at root according to the health report.
// With fixStructure set, a dual or old layout is additionally migrated to
// the new subdirectory name. The rewritten manifest is committed last.
func (r *Repairer) Repair(b bundle.Bundle, root string, mgr *manifest.Manager, report *health.Report, fixStructure bool) (*Result, error) {
	mf, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	// No usable manifest: rebuild from a fresh copy. User files outside
	// the namespace are untouched because the installer writes only
	// namespaced destinations.
	if !mgr.Exists() || len(mf.Entries) == 0 {
		return r.freshInstall(b, root, mgr, mf)
	}

	res := &Result{}

	r.recopyBroken(b, root, mf, report, res)

	if fixStructure {
		state := r.detector.Detect(root)
		if state == structure.StateDual || state == structure.StateOld {
			r.migrateStructure(root, mf, res)
		}
	}

	res.Unchanged = len(mf.Entries) - res.Modified()
	if res.Unchanged < 0 {
		res.Unchanged = 0
	}

	if mf.Version == "" {
		mf.Version = b.Version
	}
	if err := mgr.Save(mf); err != nil {
		return res, fmt.Errorf("committing repaired manifest: %w", err)
	}

	logger.Info("repair complete", "root", root,
		"repaired", len(res.Succeeded), "migrated", len(res.Migrated),
		"failed", len(res.Failed), "unchanged", res.Unchanged)

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%d files could not be repaired", len(res.Failed))
	}
	return res, nil
}

// freshInstall rebuilds the whole installation and a new manifest.
func (r *Repairer) freshInstall(b bundle.Bundle, root string, mgr *manifest.Manager, mf *manifest.Manifest) (*Result, error) {
	state := r.detector.Detect(root)
	insRes, err := r.installer.Install(b, installer.Options{
		Root:     root,
		WriteDir: r.detector.WriteDir(state),
	})
	res := &Result{FreshInstall: true}
	if insRes != nil {
		res.Succeeded = insRes.Copied
		res.Failed = insRes.Failed
	}
	if err != nil {
		return res, fmt.Errorf("rebuilding installation: %w", err)
	}

	// Preserve an existing version marker; a rebuild is not an update
	if mf.Version != "" {
		insRes.Manifest.Version = mf.Version
	}

	if err := mgr.Save(insRes.Manifest); err != nil {
		return res, fmt.Errorf("committing rebuilt manifest: %w", err)
	}
	return res, nil
}

// recopyBroken re-copies every Missing or Corrupted entry from the bundle.
func (r *Repairer) recopyBroken(b bundle.Bundle, root string, mf *manifest.Manifest, report *health.Report, res *Result) {
	broken := make(map[string]struct{})
	for _, item := range report.Missing() {
		broken[item.RelPath] = struct{}{}
	}
	for _, item := range report.Corrupted() {
		broken[item.RelPath] = struct{}{}
	}

	for _, e := range mf.Entries {
		if _, ok := broken[e.RelativePath]; !ok {
			continue
		}

		srcPath := installer.SourcePath(e.RelativePath, r.detector.OldName(), r.detector.NewName())
		entry, err := r.installer.CopyFile(b, srcPath, e.RelativePath, root)
		if err != nil {
			res.Failed = append(res.Failed, installer.FileError{RelPath: e.RelativePath, Err: err})
			logger.Error("file repair failed", "file", e.RelativePath, "error", err)
			continue
		}

		mf.AddFile(entry.Path, entry.RelativePath, entry.Size, entry.Hash)
		res.Succeeded = append(res.Succeeded, e.RelativePath)
	}
}

// migrateStructure moves managed content from the old command directory
// to the new one, rewrites the manifest paths, and removes the old files.
// Removal is guarded by the same manifest-and-namespace rule as
// uninstall.
func (r *Repairer) migrateStructure(root string, mf *manifest.Manifest, res *Result) {
	oldPrefix := r.detector.OldName() + "/"
	newPrefix := r.detector.NewName() + "/"

	var toMigrate []manifest.Entry
	for _, e := range mf.Entries {
		if strings.HasPrefix(filepath.ToSlash(e.RelativePath), oldPrefix) {
			toMigrate = append(toMigrate, e)
		}
	}

	allMoved := true
	for _, e := range toMigrate {
		if !r.rules.Contains(e.RelativePath) {
			allMoved = false
			continue
		}

		newRel := newPrefix + strings.TrimPrefix(filepath.ToSlash(e.RelativePath), oldPrefix)

		oldAbs, err := scope.Join(root, filepath.FromSlash(e.RelativePath))
		if err != nil {
			res.Failed = append(res.Failed, installer.FileError{RelPath: e.RelativePath, Err: err})
			allMoved = false
			continue
		}
		newAbs, err := scope.Join(root, filepath.FromSlash(newRel))
		if err != nil {
			res.Failed = append(res.Failed, installer.FileError{RelPath: newRel, Err: err})
			allMoved = false
			continue
		}

		if err := copyInstalled(oldAbs, newAbs); err != nil {
			res.Failed = append(res.Failed, installer.FileError{RelPath: e.RelativePath, Err: err})
			allMoved = false
			continue
		}

		// Content is byte-identical, so the recorded hash carries over
		mf.Remove(e.RelativePath)
		mf.AddFile(newAbs, newRel, e.Size, e.Hash)

		if err := os.Remove(oldAbs); err != nil && !os.IsNotExist(err) {
			logger.Warn("old file left behind after migration", "file", e.RelativePath, "error", err)
		}
		res.Migrated = append(res.Migrated, newRel)
	}

	// Drop now-empty old directories, deepest first. Directories holding
	// user files survive: os.Remove refuses non-empty directories.
	removeEmptyTree(filepath.Join(root, r.detector.OldName()))

	res.StructureFixed = allMoved && len(toMigrate) == len(res.Migrated)
}

// copyInstalled copies installed bytes between absolute paths.
func copyInstalled(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

// removeEmptyTree removes dir and its subdirectories when empty,
// children before parents.
func removeEmptyTree(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			removeEmptyTree(filepath.Join(dir, e.Name()))
		}
	}
	_ = os.Remove(dir)
}
