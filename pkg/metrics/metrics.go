// Package metrics 提供工作流引擎的Prometheus指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm_automation"

var (
	// WorkflowRuns 按结束状态统计的工作流执行次数
	WorkflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_runs_total",
		Help:      "Total number of workflow runs, partitioned by final status.",
	}, []string{"status"})

	// StepExecutions 按步骤类型和结果统计的步骤执行次数
	StepExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "step_executions_total",
		Help:      "Total number of step executions, partitioned by step type and status.",
	}, []string{"type", "status"})

	// StepDuration 步骤执行耗时
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "step_duration_seconds",
		Help:      "Step execution latency in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"type"})

	// ScheduledWorkflows 当前已注册调度的工作流数
	ScheduledWorkflows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduled_workflows",
		Help:      "Current number of workflows with a registered recurring schedule.",
	})
)

// ObserveStep 记录一次步骤执行
func ObserveStep(stepType, status string, elapsed time.Duration) {
	StepExecutions.WithLabelValues(stepType, status).Inc()
	StepDuration.WithLabelValues(stepType).Observe(elapsed.Seconds())
}

// ObserveRun 记录一次工作流执行的结束状态
func ObserveRun(status string) {
	WorkflowRuns.WithLabelValues(status).Inc()
}
