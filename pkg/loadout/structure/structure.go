// Package structure classifies the on-disk layout of an installation root.
//
// Two historical conventions exist for the command subdirectory: the old
// "commands" name and the current "workflows" name. An interrupted
// migration leaves both populated, which every other operation must treat
// as unsafe until repaired.
package structure

import (
	"os"
	"path/filepath"
)

// Historical command-subdirectory names.
const (
	OldDirName = "commands"
	NewDirName = "workflows"
)

// State is the classification of an installation root's layout.
// It is derived fresh on every invocation and never persisted.
type State int

// Layout states.
const (
	// StateNone means neither subdirectory exists.
	StateNone State = iota

	// StateOld means only the legacy subdirectory exists.
	StateOld

	// StateNew means only the current subdirectory exists.
	StateNew

	// StateDual means both exist: an interrupted migration.
	StateDual
)

// String returns the state name as reported by check output.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateOld:
		return "old"
	case StateNew:
		return "new"
	case StateDual:
		return "dual"
	default:
		return "unknown"
	}
}

// Detector probes an installation root for the two layout conventions.
// The subdirectory names are injected so tests can substitute their own.
type Detector struct {
	oldName string
	newName string
}

// NewDetector creates a detector for the given subdirectory names.
// Empty names fall back to the historical defaults.
func NewDetector(oldName, newName string) *Detector {
	if oldName == "" {
		oldName = OldDirName
	}
	if newName == "" {
		newName = NewDirName
	}
	return &Detector{oldName: oldName, newName: newName}
}

// OldName returns the legacy subdirectory name.
func (d *Detector) OldName() string { return d.oldName }

// NewName returns the current subdirectory name.
func (d *Detector) NewName() string { return d.newName }

// Detect classifies the layout under root. Both probes are independent
// stats; a missing root simply classifies as StateNone.
func (d *Detector) Detect(root string) State {
	oldPresent := dirExists(filepath.Join(root, d.oldName))
	newPresent := dirExists(filepath.Join(root, d.newName))

	switch {
	case oldPresent && newPresent:
		return StateDual
	case oldPresent:
		return StateOld
	case newPresent:
		return StateNew
	default:
		return StateNone
	}
}

// WriteDir returns which subdirectory name new writes should use for the
// given state. The new name is preferred except when exclusively the old
// layout exists, so repairs on an old-only install do not fork the layout.
func (d *Detector) WriteDir(state State) string {
	if state == StateOld {
		return d.oldName
	}
	return d.newName
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
