package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LENAX/crm-automation/pkg/core/events"
	"github.com/LENAX/crm-automation/pkg/core/executor"
	"github.com/LENAX/crm-automation/pkg/core/workflow"
	"github.com/LENAX/crm-automation/pkg/plugin"
)

// stepContext 步骤执行时可见的上下文，是执行前在锁内复制的快照
type stepContext struct {
	workflowID   string
	workflowName string
	runID        string
	results      map[string]any // step_id -> 已完成步骤的结果
	lastResult   any
	payload      map[string]any
}

func newStepContext(wf *workflow.Workflow, r *run) *stepContext {
	sc := &stepContext{
		workflowID:   wf.ID,
		workflowName: wf.Name,
		runID:        r.id,
		results:      make(map[string]any),
		payload:      r.payload,
	}
	for _, s := range wf.Steps {
		if s.Status == workflow.StepCompleted {
			sc.results[s.ID] = s.Result
			sc.lastResult = s.Result
		}
	}
	return sc
}

// agentContext agent_task传给Agent的上下文：步骤参数中的context加上工作流信息
// previous_results只包含各步骤自身的输出摘要，不嵌套更早步骤的上下文
func (sc *stepContext) agentContext(base map[string]any) map[string]any {
	out := make(map[string]any, len(base)+3)
	for k, v := range base {
		out[k] = v
	}
	if _, ok := out[executor.ContextWorkflowID]; !ok {
		out[executor.ContextWorkflowID] = sc.workflowID
	}
	if _, ok := out[executor.ContextPreviousResults]; !ok && len(sc.results) > 0 {
		previous := make(map[string]any, len(sc.results))
		for id, result := range sc.results {
			previous[id] = summarizeResult(result)
		}
		out[executor.ContextPreviousResults] = previous
	}
	if _, ok := out[executor.ContextTriggerPayload]; !ok && sc.payload != nil {
		out[executor.ContextTriggerPayload] = sc.payload
	}
	return out
}

// summarizeResult Agent结果只保留success、response和agent_type，其他步骤结果本身是扁平的
func summarizeResult(result any) any {
	m, ok := result.(map[string]any)
	if !ok {
		return result
	}
	if _, isAgent := m["response"]; !isAgent {
		return m
	}
	return map[string]any{
		"success":    m["success"],
		"response":   m["response"],
		"agent_type": m["agent_type"],
	}
}

// conditionData condition表达式可以访问的变量
// steps: 所有已完成步骤的结果；每个step_id也作为顶层变量；variables最后覆盖
func (sc *stepContext) conditionData(variables map[string]any) map[string]any {
	data := map[string]any{
		"steps":         sc.results,
		"workflow_id":   sc.workflowID,
		"workflow_name": sc.workflowName,
	}
	for id, result := range sc.results {
		data[id] = result
	}
	if sc.lastResult != nil {
		data["last_result"] = sc.lastResult
	}
	if sc.payload != nil {
		data["payload"] = sc.payload
	}
	for k, v := range variables {
		data[k] = v
	}
	return data
}

// expand 用触发数据和已完成步骤的结果替换文本中的 ${path} 占位符
func (sc *stepContext) expand(text string) string {
	out, _ := workflow.ExpandPlaceholders(text, sc.conditionData(nil))
	return out
}

// executeStep 按步骤类型分派执行；panic被转换为步骤失败
func (e *Engine) executeStep(ctx context.Context, sc *stepContext, stepID string, spec workflow.StepSpec) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("步骤 %s 执行异常: %v", stepID, rec)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch s := spec.(type) {
	case workflow.AgentTaskStep:
		return e.runAgentTask(ctx, sc, s)
	case workflow.WaitStep:
		return runWait(ctx, s)
	case workflow.ConditionStep:
		return e.runCondition(ctx, sc, s)
	case workflow.NotificationStep:
		return e.runNotification(ctx, sc, stepID, s)
	case workflow.DataOperationStep:
		return e.runDataOperation(ctx, s)
	case workflow.UnknownStep:
		return nil, fmt.Errorf("unknown step type: %s", s.RawType)
	default:
		return nil, fmt.Errorf("unknown step type: %s", spec.StepType())
	}
}

func (e *Engine) withStepTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.stepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.stepTimeout)
}

func (e *Engine) runAgentTask(ctx context.Context, sc *stepContext, s workflow.AgentTaskStep) (any, error) {
	ctx, cancel := e.withStepTimeout(ctx)
	defer cancel()

	taskContext := sc.agentContext(s.Context)
	task := sc.expand(s.Task)
	var resp *executor.AgentResponse
	if s.IsCore() {
		resp = e.exec.Process(ctx, task, taskContext)
	} else {
		resp = e.exec.Delegate(ctx, s.AgentType, task, taskContext)
	}
	return agentResult(ctx, resp, s.AgentType)
}

func (e *Engine) runDataOperation(ctx context.Context, s workflow.DataOperationStep) (any, error) {
	ctx, cancel := e.withStepTimeout(ctx)
	defer cancel()

	raw, err := json.Marshal(s.Data)
	if err != nil {
		return nil, fmt.Errorf("data无法序列化: %w", err)
	}
	task := fmt.Sprintf("Perform %s operation on %s with data: %s", s.Operation, s.Target, raw)
	resp := e.exec.Process(ctx, task, map[string]any{
		"operation": s.Operation,
		"target":    s.Target,
		"data":      s.Data,
	})
	return agentResult(ctx, resp, workflow.CoreAgent)
}

func agentResult(ctx context.Context, resp *executor.AgentResponse, agentType string) (any, error) {
	if resp == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("agent %s 没有返回结果", agentType)
	}
	if !resp.Success {
		if resp.Text == "" {
			return nil, fmt.Errorf("agent %s 执行失败", agentType)
		}
		return nil, errors.New(resp.Text)
	}
	return resp.ToMap(), nil
}

func runWait(ctx context.Context, s workflow.WaitStep) (any, error) {
	d := time.Duration(s.Seconds * float64(time.Second))
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return map[string]any{"waited_seconds": s.Seconds}, nil
}

func (e *Engine) runCondition(ctx context.Context, sc *stepContext, s workflow.ConditionStep) (any, error) {
	if strings.TrimSpace(s.Condition) == "" {
		return map[string]any{"condition_met": true}, nil
	}
	met, err := e.evaluator.Evaluate(ctx, s.Condition, sc.conditionData(s.Variables))
	if err != nil {
		return nil, err
	}
	return map[string]any{"condition_met": met}, nil
}

func (e *Engine) runNotification(ctx context.Context, sc *stepContext, stepID string, s workflow.NotificationStep) (any, error) {
	sentAt := time.Now()
	recipients := append([]string{}, s.Recipients...)
	s.Message = sc.expand(s.Message)
	s.Subject = sc.expand(s.Subject)

	e.emit(ctx, events.NewEvent(events.EventNotificationSent, sc.workflowID, sc.workflowName).
		WithStep(stepID).
		WithPayload("message", s.Message).
		WithPayload("recipients", recipients).
		WithPayload("subject", s.Subject))
	e.triggerPlugins(ctx, plugin.EventNotificationSent, plugin.PluginData{
		WorkflowID:   sc.workflowID,
		WorkflowName: sc.workflowName,
		StepID:       stepID,
		Subject:      s.Subject,
		Message:      s.Message,
		Recipients:   recipients,
		Data:         map[string]any{"run_id": sc.runID},
	})

	return map[string]any{
		"message_sent": s.Message,
		"recipients":   recipients,
		"sent_at":      sentAt.Format(time.RFC3339Nano),
	}, nil
}
