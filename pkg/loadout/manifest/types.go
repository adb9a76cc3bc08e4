// Package manifest persists the authoritative record of every file
// belonging to a managed installation.
package manifest

// On-disk file names, written at the installation root.
const (
	// FileName is the manifest file, a JSON array of entries.
	FileName = "loadout-manifest.json"

	// VersionFileName is the installed-version marker, a single-line
	// plain text version string alongside the manifest.
	VersionFileName = ".loadout-version"
)

// Entry represents one managed file.
type Entry struct {
	// Path is the absolute path the file was installed to.
	Path string `json:"path"`

	// RelativePath is the namespace-relative path under the
	// installation root.
	RelativePath string `json:"relative_path"`

	// Size is the installed file size in bytes.
	Size int64 `json:"size"`

	// Hash is the SHA-256 hex digest of the installed bytes
	// (post-rewrite, not the source bytes).
	Hash string `json:"hash"`
}

// Manifest is the ordered, unique-by-RelativePath set of entries plus the
// installed version string. The version lives in the marker file on disk,
// not in the JSON array.
type Manifest struct {
	Version string
	Entries []Entry

	// Corrupt records that the on-disk manifest existed but could not
	// be parsed. The entries are empty so repair treats the install as
	// fresh, while check must not mistake the emptiness for health.
	Corrupt bool
}

// AddFile appends an entry, replacing any existing entry with the same
// relative path. Order of first insertion is preserved.
func (m *Manifest) AddFile(absPath, relPath string, size int64, hash string) {
	entry := Entry{Path: absPath, RelativePath: relPath, Size: size, Hash: hash}
	for i := range m.Entries {
		if m.Entries[i].RelativePath == relPath {
			m.Entries[i] = entry
			return
		}
	}
	m.Entries = append(m.Entries, entry)
}

// Lookup returns the entry for a relative path.
func (m *Manifest) Lookup(relPath string) (Entry, bool) {
	for i := range m.Entries {
		if m.Entries[i].RelativePath == relPath {
			return m.Entries[i], true
		}
	}
	return Entry{}, false
}

// Remove deletes the entry for a relative path, preserving order.
// It reports whether an entry was removed.
func (m *Manifest) Remove(relPath string) bool {
	for i := range m.Entries {
		if m.Entries[i].RelativePath == relPath {
			m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
			return true
		}
	}
	return false
}
