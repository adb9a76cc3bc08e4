// Package health compares live filesystem state against the manifest and
// expected version, producing a categorized pass/fail report.
//
// The checker never mutates state: it is used by the check command
// directly and as the diagnostic input to repair.
package health

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/loadout/pkg/loadout/hashcache"
	"github.com/jamesainslie/loadout/pkg/loadout/logging"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/scope"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

var logger = logging.Get("health")

// Status classifies one checked item.
type Status string

// Item statuses.
const (
	StatusOK        Status = "ok"
	StatusMissing   Status = "missing"
	StatusCorrupted Status = "corrupted"
)

// Item is one per-file check result.
type Item struct {
	RelPath string `json:"relative_path"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// Category aggregates the items of one check category.
type Category struct {
	Items  []Item `json:"items"`
	Passed bool   `json:"passed"`
}

// VersionCheck is the version category result.
type VersionCheck struct {
	Installed string `json:"installed"` // "none" when unreadable or absent
	Expected  string `json:"expected"`
	Passed    bool   `json:"passed"`
}

// StructureCheck is the structure category result.
type StructureCheck struct {
	State   structure.State `json:"-"`
	Name    string          `json:"state"`
	Passed  bool            `json:"passed"`
	Warning string          `json:"warning,omitempty"`
}

// Report is the per-invocation diagnosis. It is produced and discarded
// per run, never persisted.
type Report struct {
	Root string `json:"root"`

	// ManifestPresent distinguishes "unhealthy" from "not installed".
	ManifestPresent bool `json:"manifest_present"`

	// ManifestCorrupt is set when the manifest file exists but could
	// not be parsed. It fails the report on its own: the empty entry
	// list would otherwise pass every per-file category vacuously.
	ManifestCorrupt bool `json:"manifest_corrupt,omitempty"`

	Files     Category       `json:"files"`
	Version   VersionCheck   `json:"version"`
	Integrity Category       `json:"integrity"`
	Structure StructureCheck `json:"structure"`

	// Untracked lists files inside managed namespaces that the manifest
	// does not know about. Informational: reported, never failed on,
	// never touched.
	Untracked []string `json:"untracked,omitempty"`

	Passed bool `json:"passed"`
}

// Missing returns the items whose file is absent or unreadable.
func (r *Report) Missing() []Item {
	return r.withStatus(StatusMissing)
}

// Corrupted returns the items whose content hash diverged.
func (r *Report) Corrupted() []Item {
	return r.withStatus(StatusCorrupted)
}

func (r *Report) withStatus(s Status) []Item {
	var out []Item
	for _, it := range r.Files.Items {
		if it.Status == s {
			out = append(out, it)
		}
	}
	for _, it := range r.Integrity.Items {
		if it.Status == s {
			out = append(out, it)
		}
	}
	return out
}

// Checker verifies an installation against its manifest.
type Checker struct {
	detector *structure.Detector
	rules    manifest.Rules
	cache    *hashcache.Cache // nil disables hash memoization
}

// NewChecker creates a checker. cache may be nil to force full rehashing.
func NewChecker(detector *structure.Detector, rules manifest.Rules, cache *hashcache.Cache) *Checker {
	return &Checker{detector: detector, rules: rules, cache: cache}
}

// Check diagnoses the installation at root against expectedVersion.
// The overall Passed flag is the AND of all four categories.
func (c *Checker) Check(root string, mgr *manifest.Manager, expectedVersion string) (*Report, error) {
	mf, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	report := &Report{
		Root:            root,
		ManifestPresent: mgr.Exists(),
		ManifestCorrupt: mf.Corrupt,
	}

	c.checkFiles(report, root, mf)
	c.checkVersion(report, mf, expectedVersion)
	c.checkIntegrity(report, root, mf)
	c.checkStructure(report, root)
	c.sweepUntracked(report, root, mf)

	report.Passed = report.ManifestPresent &&
		!report.ManifestCorrupt &&
		report.Files.Passed &&
		report.Version.Passed &&
		report.Integrity.Passed &&
		report.Structure.Passed

	logger.Debug("health check complete", "root", root, "passed", report.Passed)
	return report, nil
}

// checkFiles verifies every manifest entry exists on disk.
func (c *Checker) checkFiles(report *Report, root string, mf *manifest.Manifest) {
	report.Files.Passed = true
	for _, e := range mf.Entries {
		item := Item{RelPath: e.RelativePath, Status: StatusOK}

		abs, err := scope.Join(root, filepath.FromSlash(e.RelativePath))
		if err != nil {
			item.Status = StatusMissing
			item.Detail = err.Error()
		} else if _, statErr := os.Stat(abs); statErr != nil {
			item.Status = StatusMissing
			if !os.IsNotExist(statErr) {
				item.Detail = statErr.Error()
			}
		}

		if item.Status != StatusOK {
			report.Files.Passed = false
		}
		report.Files.Items = append(report.Files.Items, item)
	}
}

// checkVersion compares the installed version marker to the expected one.
func (c *Checker) checkVersion(report *Report, mf *manifest.Manifest, expected string) {
	installed := mf.Version
	if installed == "" {
		installed = "none"
	}
	report.Version = VersionCheck{
		Installed: installed,
		Expected:  expected,
		Passed:    mf.Version != "" && mf.Version == expected,
	}
}

// checkIntegrity recomputes content hashes and compares them to the
// recorded values. The hash cache is consulted first: a size+mtime match
// trusts the memoized hash and skips the rehash.
func (c *Checker) checkIntegrity(report *Report, root string, mf *manifest.Manifest) {
	report.Integrity.Passed = true
	for _, e := range mf.Entries {
		item := Item{RelPath: e.RelativePath, Status: StatusOK}

		abs, err := scope.Join(root, filepath.FromSlash(e.RelativePath))
		if err != nil {
			item.Status = StatusMissing
			item.Detail = err.Error()
			report.Integrity.Passed = false
			report.Integrity.Items = append(report.Integrity.Items, item)
			continue
		}

		hash, err := c.hashWithCache(root, e.RelativePath, abs)
		switch {
		case err != nil:
			item.Status = StatusMissing
			if !os.IsNotExist(err) {
				item.Detail = err.Error()
			}
		case hash != e.Hash:
			item.Status = StatusCorrupted
			item.Detail = fmt.Sprintf("hash %s, want %s", shortHash(hash), shortHash(e.Hash))
		}

		if item.Status != StatusOK {
			report.Integrity.Passed = false
		}
		report.Integrity.Items = append(report.Integrity.Items, item)
	}
}

// hashWithCache hashes abs, memoizing by size and mtime when a cache is
// configured.
func (c *Checker) hashWithCache(root, relPath, abs string) (string, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		if hash, ok := c.cache.Lookup(root, relPath, info.Size(), info.ModTime().UnixNano()); ok {
			return hash, nil
		}
	}

	hash, _, err := manifest.HashFile(abs)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.Store(root, relPath, info.Size(), info.ModTime().UnixNano(), hash)
	}
	return hash, nil
}

// checkStructure classifies the directory layout. Dual always fails;
// old passes with a migration warning.
func (c *Checker) checkStructure(report *Report, root string) {
	state := c.detector.Detect(root)
	check := StructureCheck{State: state, Name: state.String()}

	switch state {
	case structure.StateDual:
		check.Passed = false
		check.Warning = "both command directories present: interrupted migration, run repair --fix-structure"
	case structure.StateOld:
		check.Passed = true
		check.Warning = "legacy layout: migration to " + c.detector.NewName() + "/ recommended"
	default:
		check.Passed = true
	}

	report.Structure = check
}

// sweepUntracked walks the managed namespace prefixes and records files
// the manifest does not list. The sweep is informational and tolerant:
// walk errors are skipped, not reported.
func (c *Checker) sweepUntracked(report *Report, root string, mf *manifest.Manifest) {
	known := make(map[string]struct{}, len(mf.Entries))
	for _, e := range mf.Entries {
		known[filepath.ToSlash(e.RelativePath)] = struct{}{}
	}

	var untracked []string
	conf := fastwalk.Config{Follow: false}

	for _, prefix := range c.rules.Prefixes() {
		dir := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(prefix, "/")))
		if _, err := os.Stat(dir); err != nil {
			continue
		}

		_ = fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil //nolint:nilerr // informational sweep skips errors
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if _, ok := known[rel]; !ok {
				untracked = append(untracked, rel)
			}
			return nil
		})
	}

	sort.Strings(untracked)
	report.Untracked = untracked
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
