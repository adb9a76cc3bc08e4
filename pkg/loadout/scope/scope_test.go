package scope

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_GlobalAndLocalMutuallyExclusive(t *testing.T) {
	_, err := Resolve(Options{Global: true, Local: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestResolve_DirOverrideWinsOverEnv(t *testing.T) {
	flagDir := t.TempDir()
	envDir := t.TempDir()

	root, err := Resolve(Options{DirOverride: flagDir, EnvOverride: envDir})
	require.NoError(t, err)

	assert.Equal(t, flagDir, root.Path)
	assert.True(t, root.Overridden)
}

func TestResolve_EnvOverride(t *testing.T) {
	envDir := t.TempDir()

	root, err := Resolve(Options{EnvOverride: envDir})
	require.NoError(t, err)

	assert.Equal(t, envDir, root.Path)
	assert.True(t, root.Overridden)
	assert.Equal(t, KindGlobal, root.Kind)
}

func TestResolve_LocalUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	root, err := Resolve(Options{Local: true})
	require.NoError(t, err)

	assert.Equal(t, KindLocal, root.Kind)
	assert.False(t, root.Overridden)
	// macOS tempdirs sit behind a /private symlink; compare the suffix.
	assert.Equal(t, ".loadout", filepath.Base(root.Path))
}

func TestResolve_LocalDirNameOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	root, err := Resolve(Options{Local: true, LocalDirName: ".kit"})
	require.NoError(t, err)
	assert.Equal(t, ".kit", filepath.Base(root.Path))
}

func TestResolve_RejectsTraversalInOverride(t *testing.T) {
	for _, dir := range []string{"../evil", "a/../../b", ".."} {
		_, err := Resolve(Options{DirOverride: dir})
		assert.ErrorIs(t, err, ErrPathTraversal, "override %q", dir)
	}
}

func TestResolve_RejectsBlankOverride(t *testing.T) {
	_, err := Resolve(Options{DirOverride: "   "})
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestJoin_StaysInsideRoot(t *testing.T) {
	root := t.TempDir()

	got, err := Join(root, "workflows/plan.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "workflows", "plan.md"), got)
}

func TestJoin_RejectsEscape(t *testing.T) {
	root := t.TempDir()

	for _, rel := range []string{"../outside", "workflows/../../etc/passwd"} {
		_, err := Join(root, rel)
		assert.ErrorIs(t, err, ErrPathTraversal, "rel %q", rel)
	}
}

func TestJoin_AllowsRootItself(t *testing.T) {
	root := t.TempDir()

	got, err := Join(root, ".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), got)
}
