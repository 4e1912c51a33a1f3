package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPlaceholders(t *testing.T) {
	vars := map[string]any{
		"workflow_name": "Lead Intake",
		"payload": map[string]any{
			"lead": map[string]any{"name": "Acme Corp", "score": 87},
		},
	}

	out, unresolved := ExpandPlaceholders("Qualify ${payload.lead.name} (score ${payload.lead.score})", vars)
	assert.Equal(t, "Qualify Acme Corp (score 87)", out)
	assert.Empty(t, unresolved)

	out, unresolved = ExpandPlaceholders("${workflow_name}: ${payload.missing}", vars)
	assert.Equal(t, "Lead Intake: ${payload.missing}", out)
	assert.Equal(t, []string{"payload.missing"}, unresolved)

	// 未闭合的占位符保持不变
	out, _ = ExpandPlaceholders("broken ${payload", vars)
	assert.Equal(t, "broken ${payload", out)

	out, unresolved = ExpandPlaceholders("plain text", vars)
	assert.Equal(t, "plain text", out)
	assert.Nil(t, unresolved)
}

func TestLookupPath(t *testing.T) {
	vars := map[string]any{"a": map[string]any{"b": "c"}, "n": nil}

	v, ok := LookupPath(vars, "a.b")
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	_, ok = LookupPath(vars, "a.b.c")
	assert.False(t, ok)
	_, ok = LookupPath(vars, "")
	assert.False(t, ok)

	v, ok = LookupPath(vars, "n")
	assert.True(t, ok)
	assert.Nil(t, v)
}
