package dto

import (
	"time"

	"github.com/LENAX/crm-automation/pkg/core/workflow"
	"github.com/LENAX/crm-automation/pkg/storage"
)

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewMessageResponse 创建带自定义消息的成功响应
func NewMessageResponse[T any](message string, data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// WorkflowSummary Workflow摘要信息
type WorkflowSummary struct {
	ID          string                  `json:"workflow_id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Status      workflow.WorkflowStatus `json:"status"`
	TriggerType workflow.TriggerType    `json:"trigger_type"`
	Schedule    string                  `json:"schedule,omitempty"`
	StepCount   int                     `json:"step_count"`
	CurrentStep int                     `json:"current_step"`
	Completed   int                     `json:"completed_steps"`
	Scheduled   bool                    `json:"scheduled"`
	NextRunAt   *time.Time              `json:"next_run_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}

// NewWorkflowSummary 由快照构造摘要
func NewWorkflowSummary(snap *workflow.Snapshot) WorkflowSummary {
	return WorkflowSummary{
		ID:          snap.WorkflowID,
		Name:        snap.Name,
		Description: snap.Description,
		Status:      snap.Status,
		TriggerType: snap.TriggerType,
		Schedule:    snap.Schedule,
		StepCount:   snap.TotalSteps,
		CurrentStep: snap.CurrentStep,
		Completed:   snap.CompletedSteps(),
		CreatedAt:   snap.CreatedAt,
		CompletedAt: snap.CompletedAt,
	}
}

// WorkflowDetail Workflow详细信息
type WorkflowDetail struct {
	*workflow.Snapshot
	Scheduled bool       `json:"scheduled"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

// CreateWorkflowResponse 创建Workflow响应
type CreateWorkflowResponse struct {
	WorkflowID string             `json:"workflow_id"`
	Workflow   *workflow.Snapshot `json:"workflow"`
}

// ExecuteResponse 执行响应
type ExecuteResponse struct {
	WorkflowID     string             `json:"workflow_id"`
	RunID          string             `json:"run_id,omitempty"`
	Status         string             `json:"status"`
	AlreadyRunning bool               `json:"already_running"`
	Async          bool               `json:"async,omitempty"`
	FailedStep     string             `json:"failed_step,omitempty"`
	Error          string             `json:"error,omitempty"`
	Workflow       *workflow.Snapshot `json:"workflow,omitempty"`
}

// RunSummary 执行历史条目
type RunSummary struct {
	*storage.RunRecord
	Duration string `json:"duration"`
}

// TemplateSummary 模板摘要
type TemplateSummary struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	TriggerType string   `json:"trigger_type"`
	Schedule    string   `json:"schedule,omitempty"`
	StepTypes   []string `json:"step_types"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total   int  `json:"total"`
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}
