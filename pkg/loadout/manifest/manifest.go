package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager persists and loads the manifest for one installation root.
type Manager struct {
	root string
	mu   sync.Mutex
}

// NewManager creates a manager for the given installation root.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, errors.New("installation root cannot be empty")
	}
	return &Manager{root: root}, nil
}

// Path returns the manifest file path.
func (m *Manager) Path() string {
	return filepath.Join(m.root, FileName)
}

// VersionPath returns the version marker file path.
func (m *Manager) VersionPath() string {
	return filepath.Join(m.root, VersionFileName)
}

// Load reads the manifest and version marker from disk.
//
// An absent or corrupt manifest yields an empty manifest, not an error:
// the manifest is a cache of filesystem truth, and a broken one triggers
// the repair-as-fresh-install path instead of a fatal failure.
func (m *Manager) Load() (*Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mf := &Manifest{Version: m.readVersion()}

	data, err := os.ReadFile(m.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return mf, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// Unparseable JSON yields an empty entry list, flagged so the
		// health check reports it instead of passing vacuously
		return &Manifest{Version: mf.Version, Corrupt: true}, nil
	}

	// Deduplicate by relative path, keeping last occurrence, and drop
	// entries whose relative path is malformed
	for _, e := range entries {
		if e.RelativePath == "" || strings.Contains(e.RelativePath, "..") {
			continue
		}
		mf.AddFile(e.Path, e.RelativePath, e.Size, e.Hash)
	}

	return mf, nil
}

// Exists reports whether a manifest file is present on disk.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.Path())
	return err == nil
}

// Save atomically writes the manifest and version marker.
//
// Callers must have written all referenced content files first: the
// commit order is content, then marker, then manifest, so a crash
// mid-install yields an installation with no manifest rather than a
// manifest referencing missing files.
func (m *Manager) Save(mf *Manifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("creating installation root: %w", err)
	}

	if mf.Version != "" {
		if err := writeAtomic(m.VersionPath(), []byte(mf.Version+"\n")); err != nil {
			return fmt.Errorf("writing version marker: %w", err)
		}
	}

	entries := mf.Entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	if err := writeAtomic(m.Path(), data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	return nil
}

// Delete removes the manifest and version marker. Absence is success.
func (m *Manager) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range []string{m.Path(), m.VersionPath()} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// InstalledVersion returns the version from the marker file, or "" when
// the marker is absent or unreadable.
func (m *Manager) InstalledVersion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readVersion()
}

// readVersion reads the marker without locking; callers hold m.mu.
func (m *Manager) readVersion() string {
	data, err := os.ReadFile(m.VersionPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// writeAtomic writes data via a temp file in the same directory followed
// by a rename, so a crash never yields a half-written file at the final
// path.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Cleanup temp file on rename failure
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
