// Package workflow 定义CRM自动化工作流的数据模型：Workflow、Step及其状态机
package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Workflow 有序步骤序列及其生命周期元数据
// Workflow本身不加锁，由engine在自身的锁内修改和快照
type Workflow struct {
	ID          string
	Name        string
	Description string
	Status      WorkflowStatus
	TriggerType TriggerType
	Schedule    string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	// CurrentStep 最近一次开始执行（或暂停后下一个要执行）的步骤下标
	CurrentStep int
	Steps       []*Step
}

// NewWorkflow 根据步骤定义创建工作流，所有步骤为pending
func NewWorkflow(name string, defs []StepDefinition, trigger TriggerType, schedule string) (*Workflow, error) {
	if trigger == "" {
		trigger = TriggerManual
	}
	steps := make([]*Step, 0, len(defs))
	for i, def := range defs {
		step, err := newStep(i, def)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return &Workflow{
		ID:          uuid.NewString(),
		Name:        name,
		Status:      StatusCreated,
		TriggerType: trigger,
		Schedule:    schedule,
		CreatedAt:   time.Now(),
		CurrentStep: 0,
		Steps:       steps,
	}, nil
}

// ResetForRun 从头执行前重置所有步骤
func (w *Workflow) ResetForRun(now time.Time) {
	for _, s := range w.Steps {
		s.Reset()
	}
	w.Status = StatusRunning
	w.StartedAt = &now
	w.CompletedAt = nil
	w.CurrentStep = 0
}

// FirstIncompleteStep 第一个未完成步骤的下标，全部完成时返回len(Steps)
func (w *Workflow) FirstIncompleteStep() int {
	for i, s := range w.Steps {
		if s.Status != StepCompleted {
			return i
		}
	}
	return len(w.Steps)
}

// Snapshot 工作流的只读快照，用于查询和API输出
type Snapshot struct {
	WorkflowID  string         `json:"workflow_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status"`
	TriggerType TriggerType    `json:"trigger_type"`
	Schedule    string         `json:"schedule,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	CurrentStep int            `json:"current_step"`
	TotalSteps  int            `json:"total_steps"`
	Steps       []StepSnapshot `json:"steps"`
}

// StepSnapshot 步骤快照
type StepSnapshot struct {
	StepID     string         `json:"step_id"`
	StepType   StepType       `json:"step_type"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Status     StepStatus     `json:"status"`
	Result     any            `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	ExecutedAt *time.Time     `json:"executed_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Snapshot 复制当前状态，调用方需持有engine锁
func (w *Workflow) Snapshot() *Snapshot {
	snap := &Snapshot{
		WorkflowID:  w.ID,
		Name:        w.Name,
		Description: w.Description,
		Status:      w.Status,
		TriggerType: w.TriggerType,
		Schedule:    w.Schedule,
		CreatedAt:   w.CreatedAt,
		StartedAt:   copyTime(w.StartedAt),
		CompletedAt: copyTime(w.CompletedAt),
		CurrentStep: w.CurrentStep,
		TotalSteps:  len(w.Steps),
		Steps:       make([]StepSnapshot, 0, len(w.Steps)),
	}
	for _, s := range w.Steps {
		snap.Steps = append(snap.Steps, StepSnapshot{
			StepID:     s.ID,
			StepType:   s.Type,
			Parameters: copyParams(s.Parameters),
			Status:     s.Status,
			Result:     s.Result,
			Error:      s.Error,
			ExecutedAt: copyTime(s.ExecutedAt),
			FinishedAt: copyTime(s.FinishedAt),
		})
	}
	return snap
}

// CompletedSteps 已完成步骤数
func (s *Snapshot) CompletedSteps() int {
	n := 0
	for _, st := range s.Steps {
		if st.Status == StepCompleted {
			n++
		}
	}
	return n
}

// FailedStep 返回失败的步骤快照
func (s *Snapshot) FailedStep() (StepSnapshot, bool) {
	for _, st := range s.Steps {
		if st.Status == StepFailed {
			return st, true
		}
	}
	return StepSnapshot{}, false
}

// Step 按step_id查找步骤快照
func (s *Snapshot) Step(stepID string) (StepSnapshot, bool) {
	for _, st := range s.Steps {
		if st.StepID == stepID {
			return st, true
		}
	}
	return StepSnapshot{}, false
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
