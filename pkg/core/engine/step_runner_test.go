package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/crm-automation/pkg/agent"
	"github.com/LENAX/crm-automation/pkg/core/executor"
	"github.com/LENAX/crm-automation/pkg/core/workflow"
)

func TestSnapshotSizeStaysLinearWithMockAgent(t *testing.T) {
	eng := newTestEngine(t, agent.NewMockExecutor())
	ctx := context.Background()

	const steps = 24
	defs := make([]workflow.StepDefinition, 0, steps)
	for i := 0; i < steps; i++ {
		if i%4 == 3 {
			defs = append(defs, workflow.StepDefinition{Type: "data_operation", Parameters: map[string]any{
				"operation": "update", "target": "crm", "data": map[string]any{"stage": "qualified"},
			}})
			continue
		}
		defs = append(defs, workflow.StepDefinition{Type: "agent_task", Parameters: map[string]any{"task": "qualify lead"}})
	}
	id, err := eng.CreateWorkflow(ctx, "long pipeline", defs, workflow.TriggerManual, "")
	require.NoError(t, err)

	report, err := eng.ExecuteWorkflow(ctx, id)
	require.NoError(t, err)
	require.Equal(t, workflow.StatusCompleted, report.Workflow.Status)

	raw, err := json.Marshal(report.Workflow)
	require.NoError(t, err)
	assert.Less(t, len(raw), 64*1024, "快照大小应随步骤数线性增长")

	// 后面步骤的结果不包含前序步骤的结果
	first, err := json.Marshal(report.Workflow.Steps[0].Result)
	require.NoError(t, err)
	last, err := json.Marshal(report.Workflow.Steps[steps-2].Result)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(last))
	assert.NotContains(t, string(last), executor.ContextPreviousResults)
}

func TestAgentContext_PreviousResultsAreFlat(t *testing.T) {
	var (
		mu       sync.Mutex
		contexts []map[string]any
	)
	exec := executor.Funcs{
		ProcessFunc: func(_ context.Context, task string, userContext map[string]any) *executor.AgentResponse {
			mu.Lock()
			contexts = append(contexts, userContext)
			mu.Unlock()
			return &executor.AgentResponse{
				Success:   true,
				Text:      "done: " + task,
				AgentType: "core",
				Metadata:  map[string]any{"context": userContext},
			}
		},
	}
	eng := newTestEngine(t, exec)
	ctx := context.Background()

	id, err := eng.CreateWorkflow(ctx, "flat", []workflow.StepDefinition{
		{Type: "agent_task", Parameters: map[string]any{"task": "one"}},
		{Type: "wait", Parameters: map[string]any{"seconds": 0}},
		{Type: "agent_task", Parameters: map[string]any{"task": "two"}},
		{Type: "agent_task", Parameters: map[string]any{"task": "three"}},
	}, workflow.TriggerManual, "")
	require.NoError(t, err)
	_, err = eng.ExecuteWorkflow(ctx, id)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, contexts, 3)
	assert.NotContains(t, contexts[0], executor.ContextPreviousResults)

	previous, ok := contexts[2][executor.ContextPreviousResults].(map[string]any)
	require.True(t, ok)
	assert.Len(t, previous, 3)
	assert.Equal(t, map[string]any{"success": true, "response": "done: one", "agent_type": "core"}, previous["step_1"])
	assert.Equal(t, map[string]any{"waited_seconds": float64(0)}, previous["step_2"])
	assert.Equal(t, map[string]any{"success": true, "response": "done: two", "agent_type": "core"}, previous["step_3"])
}

func TestSummarizeResult(t *testing.T) {
	assert.Equal(t, "plain", summarizeResult("plain"))
	assert.Nil(t, summarizeResult(nil))

	cond := map[string]any{"condition_met": true}
	assert.Equal(t, cond, summarizeResult(cond))

	agentResult := (&executor.AgentResponse{
		Success:      true,
		Text:         "ok",
		AgentType:    "sales",
		ActionsTaken: []string{"a"},
		Metadata:     map[string]any{"context": map[string]any{"nested": "1"}},
	}).ToMap()
	assert.Equal(t, map[string]any{"success": true, "response": "ok", "agent_type": "sales"}, summarizeResult(agentResult))
}
