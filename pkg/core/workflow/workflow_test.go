package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusCreated.CanTransitionTo(StatusRunning))
	assert.True(t, StatusRunning.CanTransitionTo(StatusPaused))
	assert.True(t, StatusRunning.CanTransitionTo(StatusFailed))
	assert.True(t, StatusPaused.CanTransitionTo(StatusRunning))
	assert.True(t, StatusCompleted.CanTransitionTo(StatusRunning))

	assert.False(t, StatusCreated.CanTransitionTo(StatusPaused))
	assert.False(t, StatusPaused.CanTransitionTo(StatusCompleted))
	assert.False(t, WorkflowStatus("cancelled").IsValid())
}

func TestStepStatus_Monotonic(t *testing.T) {
	assert.True(t, StepPending.CanTransitionTo(StepRunning))
	assert.True(t, StepRunning.CanTransitionTo(StepCompleted))
	assert.False(t, StepCompleted.CanTransitionTo(StepRunning))
	assert.False(t, StepFailed.CanTransitionTo(StepPending))
	assert.False(t, StepPending.CanTransitionTo(StepCompleted))
}

func TestDecodeStep_Defaults(t *testing.T) {
	spec, err := DecodeStep(StepDefinition{Type: "agent_task", Parameters: map[string]any{"task": "qualify"}})
	require.NoError(t, err)
	agent, ok := spec.(AgentTaskStep)
	require.True(t, ok)
	assert.Equal(t, CoreAgent, agent.AgentType)
	assert.True(t, agent.IsCore())
	assert.Equal(t, "qualify", agent.Task)

	spec, err = DecodeStep(StepDefinition{Type: "wait"})
	require.NoError(t, err)
	assert.Equal(t, WaitStep{Seconds: 1}, spec)

	spec, err = DecodeStep(StepDefinition{Type: "data_operation"})
	require.NoError(t, err)
	op := spec.(DataOperationStep)
	assert.Equal(t, "query", op.Operation)
	assert.Equal(t, "crm", op.Target)
	assert.NotNil(t, op.Data)

	// 类型为空默认agent_task
	spec, err = DecodeStep(StepDefinition{})
	require.NoError(t, err)
	assert.Equal(t, StepTypeAgentTask, spec.StepType())
}

func TestDecodeStep_WeakTyping(t *testing.T) {
	spec, err := DecodeStep(StepDefinition{Type: "wait", Parameters: map[string]any{"seconds": "2.5"}})
	require.NoError(t, err)
	assert.Equal(t, 2.5, spec.(WaitStep).Seconds)

	spec, err = DecodeStep(StepDefinition{Type: "notification", Parameters: map[string]any{
		"message":    "hi",
		"recipients": "a@x.com",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, spec.(NotificationStep).Recipients)
}

func TestDecodeStep_InvalidParams(t *testing.T) {
	_, err := DecodeStep(StepDefinition{Type: "wait", Parameters: map[string]any{"seconds": "abc"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStepParams))

	_, err = DecodeStep(StepDefinition{Type: "wait", Parameters: map[string]any{"seconds": -3}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStepParams))
}

func TestDecodeStep_UnknownType(t *testing.T) {
	spec, err := DecodeStep(StepDefinition{Type: "bogus"})
	require.NoError(t, err)
	unknown, ok := spec.(UnknownStep)
	require.True(t, ok)
	assert.Equal(t, StepType("bogus"), unknown.StepType())
}

func TestNewWorkflow(t *testing.T) {
	wf, err := NewWorkflow("Test", []StepDefinition{
		{Type: "wait", Parameters: map[string]any{"seconds": 0}},
		{Type: "notification", Parameters: map[string]any{"message": "done"}},
	}, "", "")
	require.NoError(t, err)

	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, StatusCreated, wf.Status)
	assert.Equal(t, TriggerManual, wf.TriggerType)
	assert.Equal(t, 0, wf.CurrentStep)
	require.Len(t, wf.Steps, 2)
	assert.Equal(t, "step_1", wf.Steps[0].ID)
	assert.Equal(t, "step_2", wf.Steps[1].ID)
	for _, s := range wf.Steps {
		assert.Equal(t, StepPending, s.Status)
	}

	other, err := NewWorkflow("Test", nil, TriggerManual, "")
	require.NoError(t, err)
	assert.NotEqual(t, wf.ID, other.ID)
	assert.Empty(t, other.Steps)
	assert.Equal(t, 0, other.FirstIncompleteStep())
}

func TestNewWorkflow_InvalidStep(t *testing.T) {
	_, err := NewWorkflow("bad", []StepDefinition{
		{Type: "wait"},
		{Type: "wait", Parameters: map[string]any{"seconds": "soon"}},
	}, TriggerManual, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step_2")
}

func TestStep_ResultErrorExclusive(t *testing.T) {
	wf, err := NewWorkflow("x", []StepDefinition{{Type: "wait"}}, TriggerManual, "")
	require.NoError(t, err)
	s := wf.Steps[0]
	now := time.Now()

	// pending不能直接完成
	s.Complete("r", now)
	assert.Equal(t, StepPending, s.Status)

	s.Start(now)
	s.Fail("boom", now)
	assert.Equal(t, StepFailed, s.Status)
	assert.Nil(t, s.Result)
	assert.Equal(t, "boom", s.Error)

	// failed是终态
	s.Complete("late", now)
	assert.Equal(t, StepFailed, s.Status)

	s.Reset()
	assert.Equal(t, StepPending, s.Status)
	assert.Empty(t, s.Error)
	assert.Nil(t, s.ExecutedAt)
}

func TestWorkflow_ProgressHelpers(t *testing.T) {
	wf, err := NewWorkflow("x", []StepDefinition{{Type: "wait"}, {Type: "wait"}, {Type: "wait"}}, TriggerManual, "")
	require.NoError(t, err)
	now := time.Now()

	wf.ResetForRun(now)
	assert.Equal(t, StatusRunning, wf.Status)
	require.NotNil(t, wf.StartedAt)

	wf.Steps[0].Start(now)
	wf.Steps[0].Complete(nil, now)
	wf.Steps[1].Start(now)
	wf.Steps[1].Fail("x", now)

	assert.Equal(t, 1, wf.FirstIncompleteStep())

	snap := wf.Snapshot()
	assert.Equal(t, 1, snap.CompletedSteps())
	failed, ok := snap.FailedStep()
	require.True(t, ok)
	assert.Equal(t, "step_2", failed.StepID)
	assert.Equal(t, "x", failed.Error)

	wf.ResetForRun(now)
	_, ok = wf.Snapshot().FailedStep()
	assert.False(t, ok)
	assert.Equal(t, 0, wf.Snapshot().CompletedSteps())
}

func TestSnapshot_IsCopy(t *testing.T) {
	wf, err := NewWorkflow("x", []StepDefinition{{Type: "wait", Parameters: map[string]any{"seconds": 1}}}, TriggerManual, "")
	require.NoError(t, err)

	snap := wf.Snapshot()
	wf.Steps[0].Status = StepRunning
	wf.Steps[0].Parameters["seconds"] = 5

	assert.Equal(t, StepPending, snap.Steps[0].Status)
	assert.Equal(t, 1, snap.Steps[0].Parameters["seconds"])
	assert.Equal(t, 1, snap.TotalSteps)

	st, ok := snap.Step("step_1")
	assert.True(t, ok)
	assert.Equal(t, StepTypeWait, st.StepType)
	_, ok = snap.Step("step_9")
	assert.False(t, ok)
}

func TestParseSchedule(t *testing.T) {
	cases := map[string]time.Duration{
		"every_5minutes": 300 * time.Second,
		"every_2hours":   7200 * time.Second,
		"every_1days":    86400 * time.Second,
	}
	for in, want := range cases {
		got, err := ParseSchedule(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "hourly", "every_0minutes", "every_5weeks", "every_minutes", "5minutes"} {
		_, err := ParseSchedule(bad)
		assert.True(t, errors.Is(err, ErrInvalidSchedule), bad)
	}
}

func TestScheduleInterval_Fallback(t *testing.T) {
	d, ok := ScheduleInterval("every_1minutes")
	assert.True(t, ok)
	assert.Equal(t, time.Minute, d)

	d, ok = ScheduleInterval("whenever")
	assert.False(t, ok)
	assert.Equal(t, 3600*time.Second, d)
}
