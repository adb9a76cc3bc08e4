package installer

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/loadout/pkg/loadout/bundle"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/rewrite"
)

func testRules() manifest.Rules {
	return manifest.NewRules([]string{"workflows", "commands", "agents"}, nil)
}

func testBundle() bundle.Bundle {
	return bundle.Bundle{
		Version: "9.9.9",
		FS: fstest.MapFS{
			"workflows/plan.md":      {Data: []byte("root is {{LOADOUT_ROOT}}\n")},
			"workflows/deep/ship.md": {Data: []byte("no token here\n")},
			"agents/reviewer.md":     {Data: []byte("see {{LOADOUT_ROOT}}/workflows\n")},
		},
	}
}

func TestInstall_CopiesAndRewrites(t *testing.T) {
	root := t.TempDir()
	ins := New(testRules(), nil)

	res, err := ins.Install(testBundle(), Options{Root: root, WriteDir: "workflows"})
	require.NoError(t, err)
	require.Empty(t, res.Failed)
	assert.Len(t, res.Copied, 3)
	assert.Equal(t, "9.9.9", res.Manifest.Version)

	data, err := os.ReadFile(filepath.Join(root, "workflows", "plan.md"))
	require.NoError(t, err)
	assert.Equal(t, "root is "+root+"\n", string(data))
	assert.NotContains(t, string(data), rewrite.Token)

	// Manifest hash covers the rewritten bytes on disk.
	entry, ok := res.Manifest.Lookup("workflows/plan.md")
	require.True(t, ok)
	assert.Equal(t, manifest.HashBytes(data), entry.Hash)
	assert.Equal(t, int64(len(data)), entry.Size)
	assert.Equal(t, filepath.Join(root, "workflows", "plan.md"), entry.Path)
}

func TestInstall_Deterministic(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	ins := New(testRules(), nil)

	resA, err := ins.Install(testBundle(), Options{Root: rootA})
	require.NoError(t, err)
	resB, err := ins.Install(testBundle(), Options{Root: rootB})
	require.NoError(t, err)

	assert.Equal(t, resA.Copied, resB.Copied)
}

func TestInstall_DryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	ins := New(testRules(), nil)

	res, err := ins.Install(testBundle(), Options{Root: root, DryRun: true})
	require.NoError(t, err)
	assert.Len(t, res.Copied, 3)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not touch the filesystem")

	// The dry-run manifest matches what a real run would record.
	wet, err := ins.Install(testBundle(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, wet.Manifest.Entries, res.Manifest.Entries)
}

func TestInstall_WriteDirRemapsToLegacyName(t *testing.T) {
	root := t.TempDir()
	ins := New(testRules(), nil)

	res, err := ins.Install(testBundle(), Options{Root: root, WriteDir: "commands"})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "commands", "plan.md"))
	assert.NoDirExists(t, filepath.Join(root, "workflows"))

	_, ok := res.Manifest.Lookup("commands/plan.md")
	assert.True(t, ok)
	// Paths outside the command directory are not remapped.
	_, ok = res.Manifest.Lookup("agents/reviewer.md")
	assert.True(t, ok)
}

func TestInstall_RefusesOutOfNamespaceDestination(t *testing.T) {
	root := t.TempDir()
	ins := New(testRules(), nil)

	b := bundle.Bundle{
		Version: "1.0.0",
		FS: fstest.MapFS{
			"README.md": {Data: []byte("stray file")},
		},
	}

	res, err := ins.Install(b, Options{Root: root})
	require.Error(t, err)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "README.md", res.Failed[0].RelPath)
	assert.NoFileExists(t, filepath.Join(root, "README.md"))
}

func TestInstall_AbortsOnFirstFailureWithPartialResult(t *testing.T) {
	root := t.TempDir()
	ins := New(testRules(), nil)

	// Sorted traversal visits agents/ before workflows/, so the failure in
	// workflows/ leaves the agents file already copied.
	b := bundle.Bundle{
		Version: "1.0.0",
		FS: fstest.MapFS{
			"agents/reviewer.md": {Data: []byte("fine")},
			"workflows/bad":      {Data: []byte("no extension, still in namespace")},
		},
	}

	// Block the workflows directory with a plain file so MkdirAll fails.
	require.NoError(t, os.WriteFile(filepath.Join(root, "workflows"), []byte("x"), 0o644))

	res, err := ins.Install(b, Options{Root: root})
	require.Error(t, err)
	assert.Equal(t, []string{"agents/reviewer.md"}, res.Copied)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "workflows/bad", res.Failed[0].RelPath)
}

func TestCopyFile_RestoresSingleFile(t *testing.T) {
	root := t.TempDir()
	ins := New(testRules(), nil)

	entry, err := ins.CopyFile(testBundle(), "workflows/plan.md", "workflows/plan.md", root)
	require.NoError(t, err)

	data, err := os.ReadFile(entry.Path)
	require.NoError(t, err)
	assert.Equal(t, manifest.HashBytes(data), entry.Hash)
}

func TestSourcePath(t *testing.T) {
	assert.Equal(t, "workflows/plan.md", SourcePath("commands/plan.md", "commands", "workflows"))
	assert.Equal(t, "workflows/plan.md", SourcePath("workflows/plan.md", "commands", "workflows"))
	assert.Equal(t, "agents/reviewer.md", SourcePath("agents/reviewer.md", "commands", "workflows"))
}
