package uninstall

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
)

func testRules() manifest.Rules {
	return manifest.NewRules([]string{"workflows", "agents"}, nil)
}

// fixture writes files and a saved manifest at root; extra entries may be
// appended to the manifest without backing files.
func fixture(t *testing.T, root string, files map[string]string) (*manifest.Manager, *manifest.Manifest) {
	t.Helper()

	mf := &manifest.Manifest{Version: "1.0.0"}
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
		mf.AddFile(abs, rel, int64(len(content)), manifest.HashBytes([]byte(content)))
	}

	mgr, err := manifest.NewManager(root)
	require.NoError(t, err)
	require.NoError(t, mgr.Save(mf))
	return mgr, mf
}

func TestBuildPlan_SkipsOutOfNamespaceEntries(t *testing.T) {
	root := t.TempDir()
	_, mf := fixture(t, root, map[string]string{
		"workflows/plan.md": "plan",
	})
	// A tampered manifest pointing outside the namespace.
	mf.AddFile(filepath.Join(root, "README.md"), "README.md", 5, "h")
	mf.AddFile("/etc/passwd", "../../etc/passwd", 5, "h")

	plan := New(testRules(), nil).BuildPlan(root, mf)

	require.Len(t, plan.Remove, 1)
	assert.Equal(t, "workflows/plan.md", plan.Remove[0].RelPath)
	assert.Len(t, plan.Skipped, 2)
}

func TestRun_RemovesFilesAndManifest(t *testing.T) {
	root := t.TempDir()
	mgr, mf := fixture(t, root, map[string]string{
		"workflows/plan.md":      "plan",
		"workflows/deep/ship.md": "ship",
		"agents/reviewer.md":     "reviewer",
	})

	u := New(testRules(), nil)
	plan := u.BuildPlan(root, mf)
	res, err := u.Run(root, mgr, plan, Options{})
	require.NoError(t, err)

	assert.Len(t, res.Removed, 3)
	assert.Empty(t, res.Failed)
	assert.NoFileExists(t, filepath.Join(root, "workflows", "plan.md"))
	assert.NoDirExists(t, filepath.Join(root, "workflows"))
	assert.NoDirExists(t, filepath.Join(root, "agents"))
	assert.False(t, mgr.Exists())
	assert.NoFileExists(t, mgr.VersionPath())
}

func TestRun_DryRunPredictionMatchesExecution(t *testing.T) {
	root := t.TempDir()
	mgr, mf := fixture(t, root, map[string]string{
		"workflows/plan.md":  "plan",
		"agents/reviewer.md": "reviewer",
	})

	u := New(testRules(), nil)
	plan := u.BuildPlan(root, mf)

	var predicted []string
	for _, a := range plan.Remove {
		predicted = append(predicted, a.RelPath)
	}

	res, err := u.Run(root, mgr, plan, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, predicted, res.Removed)
}

func TestRun_PreservesUserFilesInManagedDirectories(t *testing.T) {
	root := t.TempDir()
	mgr, mf := fixture(t, root, map[string]string{
		"workflows/plan.md": "plan",
	})
	userFile := filepath.Join(root, "workflows", "notes.md")
	require.NoError(t, os.WriteFile(userFile, []byte("mine"), 0o644))

	u := New(testRules(), nil)
	res, err := u.Run(root, mgr, u.BuildPlan(root, mf), Options{})
	require.NoError(t, err)

	assert.FileExists(t, userFile, "untracked files are never deleted")
	assert.NotContains(t, res.PrunedDirs, "workflows", "non-empty directory survives pruning")
	assert.DirExists(t, filepath.Join(root, "workflows"))
}

func TestRun_AlreadyAbsentCountsAsRemoved(t *testing.T) {
	root := t.TempDir()
	mgr, mf := fixture(t, root, map[string]string{
		"workflows/plan.md": "plan",
	})
	require.NoError(t, os.Remove(filepath.Join(root, "workflows", "plan.md")))

	u := New(testRules(), nil)
	res, err := u.Run(root, mgr, u.BuildPlan(root, mf), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"workflows/plan.md"}, res.Removed)
	assert.False(t, mgr.Exists())
}

// failingStrategy fails on one relative path suffix and delegates the rest.
type failingStrategy struct {
	failSuffix string
}

func (failingStrategy) Name() string { return "failing" }

func (s failingStrategy) Remove(path string) error {
	if filepath.Base(path) == s.failSuffix {
		return errors.New("simulated failure")
	}
	return Permanent{}.Remove(path)
}

func TestRun_PartialFailureKeepsManifest(t *testing.T) {
	root := t.TempDir()
	mgr, mf := fixture(t, root, map[string]string{
		"workflows/plan.md":  "plan",
		"agents/reviewer.md": "reviewer",
	})

	u := New(testRules(), failingStrategy{failSuffix: "plan.md"})
	res, err := u.Run(root, mgr, u.BuildPlan(root, mf), Options{})
	require.Error(t, err)

	assert.Equal(t, []string{"agents/reviewer.md"}, res.Removed)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "workflows/plan.md", res.Failed[0].RelPath)
	assert.True(t, mgr.Exists(), "manifest survives a partial uninstall")
}

func TestRun_BackupSnapshotsBeforeDeleting(t *testing.T) {
	root := t.TempDir()
	backupDir := t.TempDir()
	mgr, mf := fixture(t, root, map[string]string{
		"workflows/plan.md": "plan body",
	})

	u := New(testRules(), nil)
	res, err := u.Run(root, mgr, u.BuildPlan(root, mf), Options{Backup: true, BackupDir: backupDir})
	require.NoError(t, err)
	require.NotEmpty(t, res.BackupPath)

	data, err := os.ReadFile(filepath.Join(res.BackupPath, "workflows", "plan.md"))
	require.NoError(t, err)
	assert.Equal(t, "plan body", string(data))
}

func TestPruneBackups(t *testing.T) {
	backupDir := t.TempDir()
	names := []string{
		"2026-01-01T00-00-00Z",
		"2026-01-02T00-00-00Z",
		"2026-01-03T00-00-00Z",
	}
	for _, n := range names {
		require.NoError(t, os.Mkdir(filepath.Join(backupDir, n), 0o755))
	}

	require.NoError(t, PruneBackups(backupDir, 2))

	assert.NoDirExists(t, filepath.Join(backupDir, names[0]))
	assert.DirExists(t, filepath.Join(backupDir, names[1]))
	assert.DirExists(t, filepath.Join(backupDir, names[2]))

	// keep <= 0 disables pruning; absent roots are fine.
	require.NoError(t, PruneBackups(backupDir, 0))
	require.NoError(t, PruneBackups(filepath.Join(backupDir, "nope"), 2))
}

func TestPermanentStrategy(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	require.NoError(t, Permanent{}.Remove(p))
	assert.NoFileExists(t, p)
	assert.Error(t, Permanent{}.Remove(p))
	assert.Equal(t, "permanent", Permanent{}.Name())
}
