// Package scope resolves the absolute installation root from scope
// selection (global vs. local) and optional directory overrides.
package scope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/jamesainslie/loadout/pkg/loadout/config"
)

// Kind tags an installation root as user-wide or project-local.
type Kind string

// Scope kinds.
const (
	KindGlobal Kind = "global"
	KindLocal  Kind = "local"
)

// Sentinel errors for scope resolution.
var (
	// ErrInvalidScope is returned when global and local are both requested,
	// or an override path fails validation.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrPathTraversal is returned when a resolved path escapes the
	// intended root. Always fatal, never auto-corrected.
	ErrPathTraversal = errors.New("path traversal")
)

// Root is the resolved installation root. It is computed fresh on every
// invocation and never persisted.
type Root struct {
	// Path is the absolute installation directory.
	Path string

	// Kind records which scope produced the path.
	Kind Kind

	// Overridden is true when the path came from a flag or environment
	// override rather than the scope default.
	Overridden bool
}

// Options selects the installation root.
// Precedence: DirOverride > EnvOverride > scope default.
type Options struct {
	// Global selects the user-wide configuration directory.
	Global bool

	// Local selects ./<hidden-dir> under the working directory.
	Local bool

	// DirOverride is an explicit directory from the --config-dir flag.
	DirOverride string

	// EnvOverride is the value of the directory-override environment
	// variable. Passed in explicitly so tests control it.
	EnvOverride string

	// LocalDirName is the hidden directory name for local scope.
	// Empty uses config.DefaultLocalDirName.
	LocalDirName string
}

// FromEnv returns the current environment-supplied directory override.
func FromEnv() string {
	return os.Getenv(config.EnvDirOverride)
}

// Resolve computes the absolute installation root from the options.
// It has no side effects on the filesystem.
func Resolve(opts Options) (Root, error) {
	if opts.Global && opts.Local {
		return Root{}, fmt.Errorf("%w: --global and --local are mutually exclusive", ErrInvalidScope)
	}

	kind := KindGlobal
	if opts.Local {
		kind = KindLocal
	}

	if opts.DirOverride != "" {
		path, err := validateOverride(opts.DirOverride)
		if err != nil {
			return Root{}, err
		}
		return Root{Path: path, Kind: kind, Overridden: true}, nil
	}

	if opts.EnvOverride != "" {
		path, err := validateOverride(opts.EnvOverride)
		if err != nil {
			return Root{}, err
		}
		return Root{Path: path, Kind: kind, Overridden: true}, nil
	}

	if kind == KindLocal {
		cwd, err := os.Getwd()
		if err != nil {
			return Root{}, fmt.Errorf("resolving working directory: %w", err)
		}
		name := opts.LocalDirName
		if name == "" {
			name = config.DefaultLocalDirName
		}
		return Root{Path: filepath.Join(cwd, name), Kind: kind}, nil
	}

	return Root{Path: filepath.Join(xdg.ConfigHome, "loadout"), Kind: kind}, nil
}

// validateOverride checks and absolutizes an override path.
// Overrides containing parent-directory elements are rejected outright:
// an override names a root, it never navigates relative to one.
func validateOverride(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty directory override", ErrInvalidScope)
	}

	for _, seg := range strings.Split(filepath.ToSlash(trimmed), "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: override %q contains parent-directory element", ErrPathTraversal, path)
		}
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}

	return filepath.Clean(abs), nil
}

// Join resolves a relative path against root and verifies the result stays
// inside it. Callers use this for every manifest-relative path before any
// read, write, or delete.
func Join(root, rel string) (string, error) {
	joined := filepath.Join(root, rel)

	cleanRoot := filepath.Clean(root)
	if joined != cleanRoot && !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes %q", ErrPathTraversal, rel, root)
	}

	return joined, nil
}
