package hashcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestStoreLookup(t *testing.T) {
	c := openTestCache(t)

	c.Store("/root/a", "workflows/plan.md", 100, 12345, "deadbeef")

	hash, ok := c.Lookup("/root/a", "workflows/plan.md", 100, 12345)
	require.True(t, ok)
	assert.Equal(t, "deadbeef", hash)
}

func TestLookup_MissOnAbsentKey(t *testing.T) {
	c := openTestCache(t)

	_, ok := c.Lookup("/root/a", "workflows/plan.md", 100, 12345)
	assert.False(t, ok)
}

func TestLookup_MissOnChangedFingerprint(t *testing.T) {
	c := openTestCache(t)
	c.Store("/root/a", "workflows/plan.md", 100, 12345, "deadbeef")

	_, ok := c.Lookup("/root/a", "workflows/plan.md", 101, 12345)
	assert.False(t, ok, "size change must miss")

	_, ok = c.Lookup("/root/a", "workflows/plan.md", 100, 99999)
	assert.False(t, ok, "mtime change must miss")
}

func TestStore_OverwritesExisting(t *testing.T) {
	c := openTestCache(t)
	c.Store("/root/a", "workflows/plan.md", 100, 12345, "old")
	c.Store("/root/a", "workflows/plan.md", 200, 56789, "new")

	_, ok := c.Lookup("/root/a", "workflows/plan.md", 100, 12345)
	assert.False(t, ok)

	hash, ok := c.Lookup("/root/a", "workflows/plan.md", 200, 56789)
	require.True(t, ok)
	assert.Equal(t, "new", hash)
}

func TestPurge_RemovesOnlyOneRoot(t *testing.T) {
	c := openTestCache(t)
	c.Store("/root/a", "workflows/plan.md", 1, 1, "ha")
	c.Store("/root/a", "agents/reviewer.md", 2, 2, "hb")
	c.Store("/root/b", "workflows/plan.md", 3, 3, "hc")

	require.NoError(t, c.Purge("/root/a"))

	_, ok := c.Lookup("/root/a", "workflows/plan.md", 1, 1)
	assert.False(t, ok)
	_, ok = c.Lookup("/root/a", "agents/reviewer.md", 2, 2)
	assert.False(t, ok)

	hash, ok := c.Lookup("/root/b", "workflows/plan.md", 3, 3)
	require.True(t, ok)
	assert.Equal(t, "hc", hash)
}

func TestPurge_PrefixDoesNotBleedAcrossSimilarRoots(t *testing.T) {
	c := openTestCache(t)
	c.Store("/root/a", "x", 1, 1, "ha")
	c.Store("/root/ab", "x", 2, 2, "hb")

	require.NoError(t, c.Purge("/root/a"))

	hash, ok := c.Lookup("/root/ab", "x", 2, 2)
	require.True(t, ok)
	assert.Equal(t, "hb", hash)
}
