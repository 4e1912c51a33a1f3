package engine

import (
	"errors"

	"github.com/LENAX/crm-automation/pkg/core/workflow"
)

var (
	// ErrWorkflowNotFound 工作流不存在
	ErrWorkflowNotFound = errors.New("workflow not found")
	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("invalid workflow state")
	// ErrInvalidTriggerType 未知的触发方式（严格模式）
	ErrInvalidTriggerType = errors.New("invalid trigger type")
	// ErrInvalidSchedule 调度字符串无法解析（严格模式）
	ErrInvalidSchedule = workflow.ErrInvalidSchedule
	// ErrInvalidStep 步骤参数无法解码
	ErrInvalidStep = errors.New("invalid step")
	// ErrEngineStopped 引擎已停止
	ErrEngineStopped = errors.New("engine stopped")
)
