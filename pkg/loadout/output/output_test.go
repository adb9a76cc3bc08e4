package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/loadout/pkg/loadout/health"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

func healthyReport() *health.Report {
	return &health.Report{
		Root:            "/home/u/.config/loadout",
		ManifestPresent: true,
		Files: health.Category{
			Items: []health.Item{
				{RelPath: "workflows/plan.md", Status: health.StatusOK},
				{RelPath: "agents/reviewer.md", Status: health.StatusOK},
			},
			Passed: true,
		},
		Version:   health.VersionCheck{Installed: "1.4.2", Expected: "1.4.2", Passed: true},
		Integrity: health.Category{Items: []health.Item{{RelPath: "workflows/plan.md", Status: health.StatusOK}}, Passed: true},
		Structure: health.StructureCheck{State: structure.StateNew, Name: "new", Passed: true},
		Passed:    true,
	}
}

func brokenReport() *health.Report {
	r := healthyReport()
	r.Files.Items[0].Status = health.StatusMissing
	r.Files.Passed = false
	r.Integrity.Items[0] = health.Item{RelPath: "agents/reviewer.md", Status: health.StatusCorrupted, Detail: "hash aaa, want bbb"}
	r.Integrity.Passed = false
	r.Untracked = []string{"workflows/stray.md"}
	r.Passed = false
	return r
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty"}, List())

	for _, name := range List() {
		f, err := Get(name)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}

	_, err := Get("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, healthyReport()))

	out := buf.String()
	assert.Contains(t, out, "/home/u/.config/loadout")
	assert.Contains(t, out, "2 tracked, 0 missing")
	assert.Contains(t, out, "installed 1.4.2, expected 1.4.2")
	assert.Contains(t, out, "healthy")
	assert.NotContains(t, out, "unhealthy")
}

func TestPrettyFormatter_Broken(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, brokenReport()))

	out := buf.String()
	assert.Contains(t, out, "unhealthy")
	assert.Contains(t, out, "workflows/plan.md")
	assert.Contains(t, out, "agents/reviewer.md")
	assert.Contains(t, out, "untracked")
	assert.Contains(t, out, "workflows/stray.md")
}

func TestFormatters_CorruptManifest(t *testing.T) {
	r := healthyReport()
	r.ManifestCorrupt = true
	r.Passed = false

	var pretty bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&pretty, r))
	assert.Contains(t, pretty.String(), "manifest unreadable")

	var plain bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&plain, r))
	assert.Contains(t, plain.String(), "manifest\tcorrupt")
}

func TestPrettyFormatter_NotInstalled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, &health.Report{Root: "/x"}))

	assert.Contains(t, buf.String(), "not installed")
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, brokenReport()))

	out := buf.String()
	assert.Contains(t, out, "files\tfail")
	assert.Contains(t, out, "integrity\tfail")
	assert.Contains(t, out, "version\tpass")
	assert.Contains(t, out, "structure\tpass\tnew")
	assert.Contains(t, out, "status\tfail")
	assert.Contains(t, out, "untracked\tworkflows/stray.md")
}

func TestJSONFormatter_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, brokenReport()))

	var decoded health.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "/home/u/.config/loadout", decoded.Root)
	assert.False(t, decoded.Passed)
	assert.Equal(t, "new", decoded.Structure.Name)
	assert.Len(t, decoded.Files.Items, 2)
}

func TestSize(t *testing.T) {
	assert.Equal(t, "1.0 KiB", Size(1024))
	assert.Equal(t, "0 B", Size(0))
}
