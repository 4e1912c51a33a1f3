package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// StepType 步骤类型标签
type StepType string

const (
	StepTypeAgentTask     StepType = "agent_task"
	StepTypeWait          StepType = "wait"
	StepTypeCondition     StepType = "condition"
	StepTypeNotification  StepType = "notification"
	StepTypeDataOperation StepType = "data_operation"
)

// CoreAgent agent_type为core时直接交给核心Agent处理，其它值走专家委派
const CoreAgent = "core"

// ErrInvalidStepParams 步骤参数无法解码为对应类型
var ErrInvalidStepParams = errors.New("invalid step parameters")

// StepDefinition 创建工作流时提交的步骤定义
type StepDefinition struct {
	Type       string         `json:"type" yaml:"type"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// StepSpec 强类型的步骤参数，封闭的和类型：只有本包内的类型实现它
type StepSpec interface {
	StepType() StepType
	isStepSpec()
}

// AgentTaskStep 交给核心Agent或专家Agent执行的任务
type AgentTaskStep struct {
	AgentType string         `mapstructure:"agent_type"`
	Task      string         `mapstructure:"task"`
	Context   map[string]any `mapstructure:"context"`
}

// WaitStep 等待指定秒数
type WaitStep struct {
	Seconds float64 `mapstructure:"seconds"`
}

// ConditionStep 针对执行上下文求值的布尔表达式
type ConditionStep struct {
	Condition string         `mapstructure:"condition"`
	Variables map[string]any `mapstructure:"variables"`
}

// NotificationStep 记录一次"消息已发送"事件
type NotificationStep struct {
	Message    string   `mapstructure:"message"`
	Recipients []string `mapstructure:"recipients"`
	Subject    string   `mapstructure:"subject"`
}

// DataOperationStep CRM数据操作，转换为文本任务交给核心Agent
type DataOperationStep struct {
	Operation string         `mapstructure:"operation"`
	Target    string         `mapstructure:"target"`
	Data      map[string]any `mapstructure:"data"`
}

// UnknownStep 未识别的步骤类型，执行时必定失败
type UnknownStep struct {
	RawType string
}

func (AgentTaskStep) StepType() StepType     { return StepTypeAgentTask }
func (WaitStep) StepType() StepType          { return StepTypeWait }
func (ConditionStep) StepType() StepType     { return StepTypeCondition }
func (NotificationStep) StepType() StepType  { return StepTypeNotification }
func (DataOperationStep) StepType() StepType { return StepTypeDataOperation }
func (u UnknownStep) StepType() StepType     { return StepType(u.RawType) }

func (AgentTaskStep) isStepSpec()     {}
func (WaitStep) isStepSpec()          {}
func (ConditionStep) isStepSpec()     {}
func (NotificationStep) isStepSpec()  {}
func (DataOperationStep) isStepSpec() {}
func (UnknownStep) isStepSpec()       {}

// IsCore 是否直接由核心Agent处理
func (a AgentTaskStep) IsCore() bool {
	return a.AgentType == "" || a.AgentType == CoreAgent
}

// DecodeStep 将步骤定义解码为强类型的StepSpec
// 类型为空时默认为agent_task；未知类型返回UnknownStep而不是错误
func DecodeStep(def StepDefinition) (StepSpec, error) {
	stepType := def.Type
	if stepType == "" {
		stepType = string(StepTypeAgentTask)
	}

	var spec StepSpec
	var err error
	switch StepType(stepType) {
	case StepTypeAgentTask:
		s := AgentTaskStep{AgentType: CoreAgent}
		err = decodeParams(def.Parameters, &s)
		if s.AgentType == "" {
			s.AgentType = CoreAgent
		}
		spec = s
	case StepTypeWait:
		s := WaitStep{Seconds: 1}
		err = decodeParams(def.Parameters, &s)
		if err == nil && s.Seconds < 0 {
			err = fmt.Errorf("%w: seconds不能为负数: %v", ErrInvalidStepParams, s.Seconds)
		}
		spec = s
	case StepTypeCondition:
		s := ConditionStep{}
		err = decodeParams(def.Parameters, &s)
		spec = s
	case StepTypeNotification:
		s := NotificationStep{}
		err = decodeParams(def.Parameters, &s)
		if s.Recipients == nil {
			s.Recipients = []string{}
		}
		spec = s
	case StepTypeDataOperation:
		s := DataOperationStep{Operation: "query", Target: "crm"}
		err = decodeParams(def.Parameters, &s)
		if s.Data == nil {
			s.Data = map[string]any{}
		}
		spec = s
	default:
		spec = UnknownStep{RawType: stepType}
	}
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func decodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStepParams, err)
	}
	return nil
}

// Step 工作流中的单个步骤（含执行状态）
type Step struct {
	ID         string
	Type       StepType
	Parameters map[string]any
	Spec       StepSpec
	Status     StepStatus
	Result     any
	Error      string
	ExecutedAt *time.Time
	FinishedAt *time.Time
}

// newStep 创建pending状态的步骤，index从0开始，ID为step_<index+1>
func newStep(index int, def StepDefinition) (*Step, error) {
	spec, err := DecodeStep(def)
	if err != nil {
		return nil, fmt.Errorf("步骤 step_%d 参数错误: %w", index+1, err)
	}
	return &Step{
		ID:         fmt.Sprintf("step_%d", index+1),
		Type:       spec.StepType(),
		Parameters: copyParams(def.Parameters),
		Spec:       spec,
		Status:     StepPending,
	}, nil
}

// Start 标记为running
func (s *Step) Start(now time.Time) {
	if !s.Status.CanTransitionTo(StepRunning) {
		return
	}
	s.Status = StepRunning
	s.ExecutedAt = &now
	s.FinishedAt = nil
	s.Result = nil
	s.Error = ""
}

// Complete 标记为completed并记录结果
func (s *Step) Complete(result any, now time.Time) {
	if !s.Status.CanTransitionTo(StepCompleted) {
		return
	}
	s.Status = StepCompleted
	s.Result = result
	s.Error = ""
	s.FinishedAt = &now
}

// Fail 标记为failed并记录错误，result与error互斥
func (s *Step) Fail(message string, now time.Time) {
	if !s.Status.CanTransitionTo(StepFailed) {
		return
	}
	s.Status = StepFailed
	s.Result = nil
	s.Error = message
	s.FinishedAt = &now
}

// Reset 重新执行前恢复为pending
func (s *Step) Reset() {
	s.Status = StepPending
	s.Result = nil
	s.Error = ""
	s.ExecutedAt = nil
	s.FinishedAt = nil
}

func copyParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
