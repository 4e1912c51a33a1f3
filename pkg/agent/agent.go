// Package agent 提供工作流引擎使用的Agent后端：本地mock和远端HTTP服务
package agent

import (
	"fmt"

	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/core/executor"
	"github.com/LENAX/crm-automation/pkg/logger"
)

// CoreAgentType 核心Agent类型
const CoreAgentType = "core"

// NewExecutorFromConfig 按配置创建StepExecutor
func NewExecutorFromConfig(cfg config.AgentConfig, log logger.Logger) (executor.StepExecutor, error) {
	switch cfg.Mode {
	case "", config.AgentModeMock:
		log.Info("🤖 使用mock Agent")
		return NewMockExecutor(), nil
	case config.AgentModeHTTP:
		exec, err := NewHTTPExecutor(HTTPConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Timeout:    cfg.Timeout,
			RetryCount: cfg.RetryCount,
		}, log)
		if err != nil {
			return nil, err
		}
		log.Info("🤖 使用HTTP Agent", "base_url", cfg.BaseURL)
		return exec, nil
	default:
		return nil, fmt.Errorf("不支持的agent.mode: %s", cfg.Mode)
	}
}
