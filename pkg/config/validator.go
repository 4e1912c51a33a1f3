package config

import (
	"fmt"
	"strings"

	"github.com/LENAX/crm-automation/pkg/core/workflow"
)

// Validate 校验框架配置合法性
func (c *EngineConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("配置不能为空")
	}
	root := c.CRMAutomation

	if root.General.InstanceName == "" {
		return fmt.Errorf("instance_name不能为空")
	}
	if root.General.LogLevel != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[root.General.LogLevel] {
			return fmt.Errorf("log_level必须是debug/info/warn/error之一")
		}
	}
	if f := root.General.LogFormat; f != "" && f != "text" && f != "json" {
		return fmt.Errorf("log_format必须是text/json之一")
	}

	if root.Execution.StepTimeout < 0 {
		return fmt.Errorf("execution.step_timeout不能为负数")
	}

	switch root.Agent.Mode {
	case AgentModeMock:
	case AgentModeHTTP:
		if root.Agent.BaseURL == "" {
			return fmt.Errorf("agent.mode为http时agent.base_url不能为空")
		}
	default:
		return fmt.Errorf("agent.mode必须是mock/http之一")
	}
	if root.Agent.Timeout < 0 {
		return fmt.Errorf("agent.timeout不能为负数")
	}

	history := root.Storage.History
	if history.Enabled {
		validDBTypes := map[string]bool{
			"sqlite":     true,
			"postgres":   true,
			"postgresql": true,
			"mysql":      true,
		}
		if !validDBTypes[history.Type] {
			return fmt.Errorf("storage.history.type必须是sqlite/postgres/mysql之一")
		}
		if history.DSN == "" {
			return fmt.Errorf("storage.history.dsn不能为空")
		}
		if history.MaxOpenConns <= 0 {
			return fmt.Errorf("storage.history.max_open_conns必须大于0")
		}
		if history.MaxIdleConns < 0 {
			return fmt.Errorf("storage.history.max_idle_conns不能为负数")
		}
	}

	if root.Server.Port <= 0 || root.Server.Port > 65535 {
		return fmt.Errorf("server.port必须在1-65535之间")
	}

	email := root.Plugins.Email
	if email.Enabled {
		if email.SMTPHost == "" {
			return fmt.Errorf("plugins.email.smtp_host不能为空")
		}
		if email.From == "" {
			return fmt.Errorf("plugins.email.from不能为空")
		}
	}

	return nil
}

// Validate 校验工作流定义
// 步骤参数按类型解码一次，提前暴露格式错误；未知步骤类型允许通过，执行时失败
func (w *WorkflowConfig) Validate() error {
	if w == nil {
		return fmt.Errorf("工作流定义不能为空")
	}
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("name不能为空")
	}
	trigger := w.Trigger()
	if !trigger.IsValid() {
		return fmt.Errorf("trigger_type必须是manual/webhook/scheduled之一: %s", trigger)
	}
	if trigger == workflow.TriggerScheduled {
		if _, err := workflow.ParseSchedule(w.Schedule); err != nil {
			return fmt.Errorf("schedule无效: %w", err)
		}
	}
	for i, step := range w.Steps {
		if _, err := workflow.DecodeStep(step); err != nil {
			return fmt.Errorf("steps[%d]参数无效: %w", i, err)
		}
	}
	return nil
}
