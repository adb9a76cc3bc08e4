package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules_Contains(t *testing.T) {
	r := NewRules([]string{"workflows", "commands/", "agents"}, []string{"AGENTS.md"})

	inside := []string{
		"workflows/plan.md",
		"workflows/nested/deep.md",
		"commands/plan.md",
		"agents/conventions.yaml",
		"AGENTS.md",
		"workflows\\plan.md", // backslash input normalizes
	}
	for _, p := range inside {
		assert.True(t, r.Contains(p), "expected %q inside namespace", p)
	}

	outside := []string{
		"README.md",
		"workflowsx/plan.md",
		"src/workflows/plan.md",
		"../workflows/plan.md",
		"/workflows/plan.md",
		"workflows/../README.md",
		"",
		".",
	}
	for _, p := range outside {
		assert.False(t, r.Contains(p), "expected %q outside namespace", p)
	}
}

func TestRules_EmptyRulesContainNothing(t *testing.T) {
	r := NewRules(nil, nil)
	assert.False(t, r.Contains("workflows/plan.md"))
	assert.False(t, r.Contains("anything"))
}

func TestRules_Prefixes(t *testing.T) {
	r := NewRules([]string{"workflows", "agents/"}, nil)
	assert.Equal(t, []string{"workflows/", "agents/"}, r.Prefixes())
}
