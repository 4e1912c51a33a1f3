package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// 环境变量覆盖项
const (
	EnvHistoryDSN   = "CRM_AUTOMATION_HISTORY_DSN"
	EnvAgentBaseURL = "CRM_AUTOMATION_AGENT_BASE_URL"
	EnvAgentAPIKey  = "CRM_AUTOMATION_AGENT_API_KEY"
)

// LoadEngineConfig 加载框架配置文件
// 文件不存在时返回默认配置；加载后依次应用环境变量覆盖和默认值
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cfg := &EngineConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// 使用默认配置
		case err != nil:
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("解析配置文件失败: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *EngineConfig) applyEnv() {
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		c.CRMAutomation.Storage.History.DSN = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.CRMAutomation.Agent.BaseURL = v
	}
	if v := os.Getenv(EnvAgentAPIKey); v != "" {
		c.CRMAutomation.Agent.APIKey = v
	}
}
