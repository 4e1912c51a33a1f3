package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LENAX/crm-automation/pkg/core/workflow"
)

// WorkflowConfig 工作流定义文件（对外导出）
//
//	name: lead_qualification
//	trigger_type: manual
//	steps:
//	  - type: agent_task
//	    parameters:
//	      agent_type: sales
//	      task: Qualify the lead
type WorkflowConfig struct {
	Name        string                    `yaml:"name" json:"name"`
	Description string                    `yaml:"description,omitempty" json:"description,omitempty"`
	TriggerType string                    `yaml:"trigger_type,omitempty" json:"trigger_type,omitempty"`
	Schedule    string                    `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Steps       []workflow.StepDefinition `yaml:"steps" json:"steps"`
}

// Trigger 触发方式，为空时为manual
func (w *WorkflowConfig) Trigger() workflow.TriggerType {
	if w.TriggerType == "" {
		return workflow.TriggerManual
	}
	return workflow.TriggerType(w.TriggerType)
}

// Clone 深拷贝步骤定义，模板实例化时避免共享参数map
func (w *WorkflowConfig) Clone() *WorkflowConfig {
	out := *w
	out.Steps = make([]workflow.StepDefinition, len(w.Steps))
	for i, s := range w.Steps {
		out.Steps[i] = workflow.StepDefinition{Type: s.Type, Parameters: cloneMap(s.Parameters)}
	}
	return &out
}

// ParseWorkflowConfig 解析YAML格式的工作流定义并校验
func ParseWorkflowConfig(data []byte) (*WorkflowConfig, error) {
	var cfg WorkflowConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析工作流定义失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWorkflowConfig 从文件加载工作流定义
func LoadWorkflowConfig(path string) (*WorkflowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取工作流定义失败: %w", err)
	}
	return ParseWorkflowConfig(data)
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch tv := v.(type) {
		case map[string]any:
			out[k] = cloneMap(tv)
		case []any:
			items := make([]any, len(tv))
			for i, item := range tv {
				if m, ok := item.(map[string]any); ok {
					items[i] = cloneMap(m)
				} else {
					items[i] = item
				}
			}
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}
