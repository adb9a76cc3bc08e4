package bundle

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	b := Embedded()
	require.NotNil(t, b.FS)
	assert.Equal(t, Version, b.Version)
	assert.NotEmpty(t, Version)
}

func TestEmbedded_AllFilesInsideNamespace(t *testing.T) {
	b := Embedded()

	var files []string
	err := fs.WalkDir(b.FS, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		inNamespace := strings.HasPrefix(f, "workflows/") || strings.HasPrefix(f, "agents/")
		assert.True(t, inNamespace, "bundle file %q escapes the managed namespace", f)
	}
}

func TestEmbedded_FilesAreReadable(t *testing.T) {
	b := Embedded()

	data, err := fs.ReadFile(b.FS, "workflows/plan.md")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
