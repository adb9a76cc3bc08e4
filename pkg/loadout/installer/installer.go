// Package installer copies the source bundle into an installation root
// and builds the manifest recording every file written.
package installer

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/loadout/pkg/loadout/bundle"
	"github.com/jamesainslie/loadout/pkg/loadout/logging"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/rewrite"
	"github.com/jamesainslie/loadout/pkg/loadout/scope"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

var logger = logging.Get("installer")

// FileError records a single failed copy.
type FileError struct {
	RelPath string
	Err     error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.RelPath, e.Err)
}

// Result is the outcome of an install run. On failure the manifest holds
// the entries written before the abort; the caller decides whether to
// retain the partial state (repair semantics) or discard it
// (fresh-install semantics).
type Result struct {
	Manifest *manifest.Manifest
	Copied   []string
	Failed   []FileError
}

// Options parameterizes one install run.
type Options struct {
	// Root is the absolute installation root.
	Root string

	// WriteDir is the command-subdirectory name to write under, from
	// structure.Detector.WriteDir. Bundle paths under the current name
	// are remapped to it.
	WriteDir string

	// DryRun computes the copy plan without writing anything.
	DryRun bool
}

// Installer copies bundle files with path rewriting and hashing.
// No automatic rollback is attempted on failure; recovery relies on a
// pre-operation backup or external version control.
type Installer struct {
	rules    manifest.Rules
	rewriter rewrite.Func
}

// New creates an installer. A nil rewriter uses rewrite.Default.
func New(rules manifest.Rules, rewriter rewrite.Func) *Installer {
	if rewriter == nil {
		rewriter = rewrite.Default
	}
	return &Installer{rules: rules, rewriter: rewriter}
}

// workItem is one pending directory in the traversal queue.
type workItem struct {
	srcDir string
}

// Install copies every file of the bundle into opts.Root and returns the
// manifest built from the written files. The traversal is an iterative
// work queue, drained in sorted order so runs are deterministic.
//
// A write failure aborts remaining copies: the result carries the partial
// manifest plus the per-file error, and the returned error is non-nil.
// Install does not commit the manifest to disk; the caller owns the
// content-then-manifest commit order.
func (ins *Installer) Install(b bundle.Bundle, opts Options) (*Result, error) {
	res := &Result{Manifest: &manifest.Manifest{Version: b.Version}}

	queue := []workItem{{srcDir: "."}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		entries, err := fs.ReadDir(b.FS, item.srcDir)
		if err != nil {
			res.Failed = append(res.Failed, FileError{RelPath: item.srcDir, Err: err})
			return res, fmt.Errorf("reading bundle directory %s: %w", item.srcDir, err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			srcPath := path.Join(item.srcDir, entry.Name())
			if entry.IsDir() {
				queue = append(queue, workItem{srcDir: srcPath})
				continue
			}

			relPath := ins.mapRelPath(srcPath, opts.WriteDir)
			mfEntry, err := ins.copyOne(b.FS, srcPath, relPath, opts)
			if err != nil {
				res.Failed = append(res.Failed, FileError{RelPath: relPath, Err: err})
				logger.Error("copy failed, aborting remaining files", "file", relPath, "error", err)
				return res, fmt.Errorf("writing %s: %w", relPath, err)
			}

			res.Manifest.AddFile(mfEntry.Path, mfEntry.RelativePath, mfEntry.Size, mfEntry.Hash)
			res.Copied = append(res.Copied, relPath)
		}
	}

	logger.Info("bundle copied", "root", opts.Root, "files", len(res.Copied), "dry_run", opts.DryRun)
	return res, nil
}

// CopyFile re-copies a single bundle file to its installed location,
// applying rewriting and returning the fresh manifest entry. Repair uses
// this to regenerate missing or corrupted entries without a full install.
func (ins *Installer) CopyFile(b bundle.Bundle, srcPath, relPath, root string) (manifest.Entry, error) {
	return ins.copyOne(b.FS, srcPath, relPath, Options{Root: root, WriteDir: ""})
}

// SourcePath maps an installed relative path back to its bundle path.
// Installed paths under a legacy command directory map to the bundle's
// current directory name.
func SourcePath(relPath, oldDir, newDir string) string {
	rel := filepath.ToSlash(relPath)
	if oldDir != "" && strings.HasPrefix(rel, oldDir+"/") {
		return newDir + "/" + strings.TrimPrefix(rel, oldDir+"/")
	}
	return rel
}

// mapRelPath computes the installed relative path for a bundle path,
// remapping the current command-directory name to the write directory.
func (ins *Installer) mapRelPath(srcPath, writeDir string) string {
	if writeDir == "" || writeDir == structure.NewDirName {
		return srcPath
	}
	if strings.HasPrefix(srcPath, structure.NewDirName+"/") {
		return writeDir + "/" + strings.TrimPrefix(srcPath, structure.NewDirName+"/")
	}
	return srcPath
}

// copyOne writes one bundle file beneath opts.Root and returns its entry.
// Every destination is namespace-checked and traversal-checked before any
// byte is written; either check failing leaves the filesystem untouched.
func (ins *Installer) copyOne(src fs.FS, srcPath, relPath string, opts Options) (manifest.Entry, error) {
	if !ins.rules.Contains(relPath) {
		return manifest.Entry{}, fmt.Errorf("destination %q is outside the managed namespace", relPath)
	}

	destAbs, err := scope.Join(opts.Root, filepath.FromSlash(relPath))
	if err != nil {
		return manifest.Entry{}, err
	}

	raw, err := fs.ReadFile(src, srcPath)
	if err != nil {
		return manifest.Entry{}, fmt.Errorf("reading bundle file: %w", err)
	}

	data := raw
	if rewrite.IsTextPath(relPath) && !rewrite.IsBinary(raw) {
		data = ins.rewriter(raw, opts.Root)
	}

	// Hash is computed from the rewritten bytes, since those are the
	// bytes that land on disk.
	entry := manifest.Entry{
		Path:         destAbs,
		RelativePath: relPath,
		Size:         int64(len(data)),
		Hash:         manifest.HashBytes(data),
	}

	if opts.DryRun {
		return entry, nil
	}

	if err := os.MkdirAll(filepath.Dir(destAbs), 0o755); err != nil {
		return manifest.Entry{}, fmt.Errorf("creating parent directory: %w", err)
	}

	if err := os.WriteFile(destAbs, data, 0o644); err != nil {
		return manifest.Entry{}, fmt.Errorf("writing file: %w", err)
	}

	return entry, nil
}
