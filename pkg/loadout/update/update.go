package update

import (
	"context"
	"fmt"

	"github.com/jamesainslie/loadout/pkg/loadout/bundle"
	"github.com/jamesainslie/loadout/pkg/loadout/installer"
	"github.com/jamesainslie/loadout/pkg/loadout/logging"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

var logger = logging.Get("update")

// Outcome reports what an update run decided and did.
type Outcome struct {
	// Installed is the version present before the run ("" when none).
	Installed string

	// Target is the version the resolver picked.
	Target string

	// AlreadyCurrent is true when no write happened because installed
	// equals target. Informational success, not an error.
	AlreadyCurrent bool

	// Copied counts files written by the re-install.
	Copied int
}

// Orchestrator drives the update flow: resolve, compare, re-install.
type Orchestrator struct {
	installer *installer.Installer
	detector  *structure.Detector
}

// New creates an update orchestrator.
func New(ins *installer.Installer, detector *structure.Detector) *Orchestrator {
	return &Orchestrator{installer: ins, detector: detector}
}

// Update resolves the target version and, when it differs from the
// installed one, re-runs the installer against root: the previously
// detected scope, so update never silently changes install location.
// The new version marker is written as part of the same manifest commit.
//
// The bundle ships inside the binary, so only the bundled version can be
// installed: a resolved version the binary does not carry aborts with
// ErrVersionUnavailable and no state change.
func (o *Orchestrator) Update(ctx context.Context, b bundle.Bundle, root string, mgr *manifest.Manager, resolver Resolver, req Request) (*Outcome, error) {
	target, err := resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Installed: mgr.InstalledVersion(),
		Target:    target,
	}

	if out.Installed == target {
		out.AlreadyCurrent = true
		logger.Info("already current", "version", target)
		return out, nil
	}

	if target != b.Version {
		return out, fmt.Errorf("%w: resolved %s but this binary bundles %s; upgrade the loadout binary",
			ErrVersionUnavailable, target, b.Version)
	}

	state := o.detector.Detect(root)
	res, err := o.installer.Install(b, installer.Options{
		Root:     root,
		WriteDir: o.detector.WriteDir(state),
	})
	if res != nil {
		out.Copied = len(res.Copied)
	}
	if err != nil {
		return out, fmt.Errorf("installing %s: %w", target, err)
	}

	res.Manifest.Version = target
	if err := mgr.Save(res.Manifest); err != nil {
		return out, fmt.Errorf("committing manifest: %w", err)
	}

	logger.Info("updated", "from", orNone(out.Installed), "to", target, "files", out.Copied)
	return out, nil
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
