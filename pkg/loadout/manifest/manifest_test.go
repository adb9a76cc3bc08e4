package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RequiresRoot(t *testing.T) {
	_, err := NewManager("")
	require.Error(t, err)
}

func TestLoad_AbsentManifestIsEmpty(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	mf, err := mgr.Load()
	require.NoError(t, err)
	assert.Empty(t, mf.Entries)
	assert.Empty(t, mf.Version)
	assert.False(t, mgr.Exists())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root)
	require.NoError(t, err)

	mf := &Manifest{Version: "1.4.2"}
	mf.AddFile(filepath.Join(root, "workflows", "plan.md"), "workflows/plan.md", 42, "aaaa")
	mf.AddFile(filepath.Join(root, "agents", "reviewer.md"), "agents/reviewer.md", 7, "bbbb")

	require.NoError(t, mgr.Save(mf))
	assert.True(t, mgr.Exists())

	got, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", got.Version)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "workflows/plan.md", got.Entries[0].RelativePath)
	assert.Equal(t, int64(42), got.Entries[0].Size)
	assert.Equal(t, "1.4.2", mgr.InstalledVersion())
}

func TestLoad_CorruptManifestTreatedAsEmpty(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(mgr.Path(), []byte("{not json"), 0o644))

	mf, err := mgr.Load()
	require.NoError(t, err)
	assert.Empty(t, mf.Entries)
	assert.True(t, mf.Corrupt)
	// The file itself still exists; only its content is discarded.
	assert.True(t, mgr.Exists())
}

func TestLoad_ValidManifestNotCorrupt(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(mgr.Path(), []byte("[]"), 0o644))

	mf, err := mgr.Load()
	require.NoError(t, err)
	assert.False(t, mf.Corrupt)
}

func TestLoad_DropsMalformedEntries(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root)
	require.NoError(t, err)

	raw := `[
	  {"path": "/x", "relative_path": "workflows/a.md", "size": 1, "hash": "h1"},
	  {"path": "/y", "relative_path": "../escape", "size": 1, "hash": "h2"},
	  {"path": "/z", "relative_path": "", "size": 1, "hash": "h3"},
	  {"path": "/x2", "relative_path": "workflows/a.md", "size": 9, "hash": "h4"}
	]`
	require.NoError(t, os.WriteFile(mgr.Path(), []byte(raw), 0o644))

	mf, err := mgr.Load()
	require.NoError(t, err)
	require.Len(t, mf.Entries, 1)
	// Duplicate relative paths keep the last occurrence.
	assert.Equal(t, int64(9), mf.Entries[0].Size)
}

func TestSave_VersionMarkerAlongsideManifest(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root)
	require.NoError(t, err)

	require.NoError(t, mgr.Save(&Manifest{Version: "2.0.0"}))

	data, err := os.ReadFile(mgr.VersionPath())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0\n", string(data))
}

func TestDelete_RemovesBothFilesAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root)
	require.NoError(t, err)

	require.NoError(t, mgr.Save(&Manifest{Version: "1.0.0"}))
	require.NoError(t, mgr.Delete())

	assert.False(t, mgr.Exists())
	assert.Empty(t, mgr.InstalledVersion())

	// Deleting an already-absent manifest succeeds.
	require.NoError(t, mgr.Delete())
}

func TestManifest_AddLookupRemove(t *testing.T) {
	mf := &Manifest{}
	mf.AddFile("/a", "workflows/a.md", 1, "h1")
	mf.AddFile("/b", "workflows/b.md", 2, "h2")
	mf.AddFile("/a2", "workflows/a.md", 3, "h3")

	require.Len(t, mf.Entries, 2)
	e, ok := mf.Lookup("workflows/a.md")
	require.True(t, ok)
	assert.Equal(t, int64(3), e.Size)
	// Replacement preserves insertion order.
	assert.Equal(t, "workflows/a.md", mf.Entries[0].RelativePath)

	assert.True(t, mf.Remove("workflows/a.md"))
	assert.False(t, mf.Remove("workflows/a.md"))
	_, ok = mf.Lookup("workflows/a.md")
	assert.False(t, ok)
}

func TestHashBytes_Stable(t *testing.T) {
	assert.Equal(t, HashBytes([]byte("hello")), HashBytes([]byte("hello")))
	assert.NotEqual(t, HashBytes([]byte("hello")), HashBytes([]byte("hello!")))
	assert.Len(t, HashBytes(nil), 64)
}

func TestHashFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("content"), 0o644))

	hash, size, err := HashFile(p)
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("content")), hash)
	assert.Equal(t, int64(7), size)
}
