package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/crm-automation/pkg/core/workflow"
)

func TestList(t *testing.T) {
	all, err := List()
	require.NoError(t, err)

	keys := make([]string, 0, len(all))
	for _, tpl := range all {
		keys = append(keys, tpl.Key)
	}
	assert.Equal(t, []string{
		"customer_onboarding",
		"lead_qualification",
		"meeting_followup",
		"pipeline_update",
		"quote_generation",
	}, keys)
}

func TestGet(t *testing.T) {
	tpl, err := Get("quote_generation")
	require.NoError(t, err)
	assert.Equal(t, "Automated Quote Generation", tpl.Config.Name)
	require.Len(t, tpl.Config.Steps, 4)
	assert.Equal(t, "data_operation", tpl.Config.Steps[2].Type)

	_, err = Get("missing")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestTemplatesDecode(t *testing.T) {
	all, err := List()
	require.NoError(t, err)
	for _, tpl := range all {
		for i, def := range tpl.Config.Steps {
			spec, err := workflow.DecodeStep(def)
			require.NoError(t, err, "%s steps[%d]", tpl.Key, i)
			_, unknown := spec.(workflow.UnknownStep)
			assert.False(t, unknown, "%s steps[%d]", tpl.Key, i)
		}
	}
}

func TestPipelineUpdateIsScheduled(t *testing.T) {
	tpl, err := Get("pipeline_update")
	require.NoError(t, err)
	assert.Equal(t, workflow.TriggerScheduled, tpl.Config.Trigger())
	assert.Equal(t, "every_1days", tpl.Config.Schedule)
}

func TestGetReturnsCopy(t *testing.T) {
	first, err := Get("lead_qualification")
	require.NoError(t, err)
	first.Config.Name = "changed"
	first.Config.Steps[0].Parameters["task"] = "changed"

	second, err := Get("lead_qualification")
	require.NoError(t, err)
	assert.Equal(t, "Automated Lead Qualification", second.Config.Name)
	assert.Equal(t, "Qualify incoming lead based on BANT criteria", second.Config.Steps[0].Parameters["task"])
}
