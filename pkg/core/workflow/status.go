package workflow

// WorkflowStatus 工作流状态枚举（对外导出）
type WorkflowStatus string

const (
	// StatusCreated 已创建，尚未执行
	StatusCreated WorkflowStatus = "created"
	// StatusRunning 执行中
	StatusRunning WorkflowStatus = "running"
	// StatusCompleted 所有步骤执行成功
	StatusCompleted WorkflowStatus = "completed"
	// StatusFailed 某一步骤失败，执行已停止
	StatusFailed WorkflowStatus = "failed"
	// StatusPaused 已暂停，在步骤边界生效
	StatusPaused WorkflowStatus = "paused"
)

// IsValid 检查状态是否有效
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case StatusCreated, StatusRunning, StatusCompleted, StatusFailed, StatusPaused:
		return true
	default:
		return false
	}
}

// IsTerminal completed和failed是一次执行的终态（可以重新执行）
func (s WorkflowStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo 检查是否可以转换到目标状态
func (s WorkflowStatus) CanTransitionTo(target WorkflowStatus) bool {
	switch s {
	case StatusCreated, StatusCompleted, StatusFailed:
		// 重新执行从头开始
		return target == StatusRunning
	case StatusRunning:
		return target == StatusCompleted || target == StatusFailed || target == StatusPaused
	case StatusPaused:
		// 恢复执行，或被ExecuteWorkflow从头重跑
		return target == StatusRunning
	default:
		return false
	}
}

// StepStatus 步骤状态枚举（对外导出）
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// CanTransitionTo 步骤状态单调推进：pending -> running -> completed|failed
func (s StepStatus) CanTransitionTo(target StepStatus) bool {
	switch s {
	case StepPending:
		return target == StepRunning
	case StepRunning:
		return target == StepCompleted || target == StepFailed
	default:
		return false
	}
}

// IsTerminal 是否为终态
func (s StepStatus) IsTerminal() bool {
	return s == StepCompleted || s == StepFailed
}

// TriggerType 触发方式
type TriggerType string

const (
	TriggerManual    TriggerType = "manual"
	TriggerWebhook   TriggerType = "webhook"
	TriggerScheduled TriggerType = "scheduled"
)

// IsValid 检查触发方式是否为已知值
func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerManual, TriggerWebhook, TriggerScheduled:
		return true
	default:
		return false
	}
}
