// Package executor 定义工作流引擎与Agent之间的能力接口
package executor

import (
	"context"
)

// WorkflowSystemUser 工作流发起的Agent调用使用的用户标识
const WorkflowSystemUser = "workflow_system"

// 引擎写入Agent上下文的键
const (
	ContextWorkflowID      = "workflow_id"
	ContextPreviousResults = "previous_results"
	ContextTriggerPayload  = "trigger_payload"
)

// AgentResponse Agent处理结果
// 失败通过Success=false和Text中的可读信息表达，而不是error
type AgentResponse struct {
	Success      bool           `json:"success"`
	Text         string         `json:"response"`
	AgentType    string         `json:"agent_type"`
	ActionsTaken []string       `json:"actions_taken"`
	Metadata     map[string]any `json:"metadata"`
}

// ToMap 转换为步骤结果使用的通用map，便于条件表达式访问
func (r *AgentResponse) ToMap() map[string]any {
	actions := make([]any, 0, len(r.ActionsTaken))
	for _, a := range r.ActionsTaken {
		actions = append(actions, a)
	}
	metadata := make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		metadata[k] = v
	}
	return map[string]any{
		"success":       r.Success,
		"response":      r.Text,
		"agent_type":    r.AgentType,
		"actions_taken": actions,
		"metadata":      metadata,
	}
}

// Failure 构造失败响应
func Failure(agentType, message string) *AgentResponse {
	return &AgentResponse{
		Success:      false,
		Text:         message,
		AgentType:    agentType,
		ActionsTaken: []string{},
		Metadata:     map[string]any{},
	}
}

// StepExecutor 执行agent_task/data_operation步骤的外部能力
type StepExecutor interface {
	// Process 交给核心Agent直接处理
	Process(ctx context.Context, task string, userContext map[string]any) *AgentResponse
	// Delegate 委派给指定专家Agent（sales/operations/quote/scheduler等）
	Delegate(ctx context.Context, specialist, task string, taskContext map[string]any) *AgentResponse
}

// Funcs 用函数实现StepExecutor，主要用于测试和简单集成
type Funcs struct {
	ProcessFunc  func(ctx context.Context, task string, userContext map[string]any) *AgentResponse
	DelegateFunc func(ctx context.Context, specialist, task string, taskContext map[string]any) *AgentResponse
}

// Process 实现StepExecutor
func (f Funcs) Process(ctx context.Context, task string, userContext map[string]any) *AgentResponse {
	if f.ProcessFunc == nil {
		return Failure("core", "process未实现")
	}
	return f.ProcessFunc(ctx, task, userContext)
}

// Delegate 实现StepExecutor
func (f Funcs) Delegate(ctx context.Context, specialist, task string, taskContext map[string]any) *AgentResponse {
	if f.DelegateFunc == nil {
		return Failure(specialist, "delegate未实现")
	}
	return f.DelegateFunc(ctx, specialist, task, taskContext)
}

var _ StepExecutor = Funcs{}
