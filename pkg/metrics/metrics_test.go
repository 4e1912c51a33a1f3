package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStep(t *testing.T) {
	before := testutil.ToFloat64(StepExecutions.WithLabelValues("wait", "completed"))
	ObserveStep("wait", "completed", 10*time.Millisecond)
	after := testutil.ToFloat64(StepExecutions.WithLabelValues("wait", "completed"))
	assert.Equal(t, before+1, after)
}

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(WorkflowRuns.WithLabelValues("failed"))
	ObserveRun("failed")
	assert.Equal(t, before+1, testutil.ToFloat64(WorkflowRuns.WithLabelValues("failed")))
}

func TestScheduledWorkflowsGauge(t *testing.T) {
	ScheduledWorkflows.Set(0)
	ScheduledWorkflows.Inc()
	ScheduledWorkflows.Inc()
	ScheduledWorkflows.Dec()
	assert.Equal(t, float64(1), testutil.ToFloat64(ScheduledWorkflows))
}
