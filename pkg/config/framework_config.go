// Package config 引擎配置与工作流定义文件的加载
package config

import (
	"net"
	"strconv"
	"time"
)

// EngineConfig 引擎框架配置（对外导出）
type EngineConfig struct {
	CRMAutomation struct {
		General struct {
			InstanceName string `yaml:"instance_name"`
			LogLevel     string `yaml:"log_level"`
			LogFormat    string `yaml:"log_format"` // text | json
			Env          string `yaml:"env"`
		} `yaml:"general"`
		Execution struct {
			StepTimeout time.Duration `yaml:"step_timeout"`
			// StrictValidation 为nil时默认严格
			StrictValidation *bool `yaml:"strict_validation"`
		} `yaml:"execution"`
		Agent   AgentConfig `yaml:"agent"`
		Storage struct {
			History HistoryConfig `yaml:"history"`
		} `yaml:"storage"`
		Server  ServerConfig `yaml:"server"`
		Plugins struct {
			Email EmailConfig `yaml:"email"`
		} `yaml:"plugins"`
	} `yaml:"crm-automation"`
}

// AgentConfig Agent后端配置
type AgentConfig struct {
	Mode       string        `yaml:"mode"` // mock | http
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"` // 0使用默认值，负数表示不重试
}

// HistoryConfig 执行历史存储配置
type HistoryConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Type            string        `yaml:"type"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// EmailConfig 邮件插件配置
type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

const (
	AgentModeMock = "mock"
	AgentModeHTTP = "http"
)

// GetLogLevel 获取日志级别
func (c *EngineConfig) GetLogLevel() string {
	return c.CRMAutomation.General.LogLevel
}

// IsJSONLog 是否输出JSON格式日志
func (c *EngineConfig) IsJSONLog() bool {
	return c.CRMAutomation.General.LogFormat == "json"
}

// GetStepTimeout 获取步骤超时时间
func (c *EngineConfig) GetStepTimeout() time.Duration {
	return c.CRMAutomation.Execution.StepTimeout
}

// IsStrictValidation 是否严格校验trigger_type和schedule
func (c *EngineConfig) IsStrictValidation() bool {
	strict := c.CRMAutomation.Execution.StrictValidation
	return strict == nil || *strict
}

// GetAgent 获取Agent配置
func (c *EngineConfig) GetAgent() AgentConfig {
	return c.CRMAutomation.Agent
}

// GetHistory 获取执行历史配置
func (c *EngineConfig) GetHistory() HistoryConfig {
	return c.CRMAutomation.Storage.History
}

// GetServer 获取HTTP服务配置
func (c *EngineConfig) GetServer() ServerConfig {
	return c.CRMAutomation.Server
}

// GetEmail 获取邮件插件配置
func (c *EngineConfig) GetEmail() EmailConfig {
	return c.CRMAutomation.Plugins.Email
}

// ListenAddr HTTP监听地址
func (s ServerConfig) ListenAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ApplyDefaults 应用默认值
func (c *EngineConfig) ApplyDefaults() {
	general := &c.CRMAutomation.General
	if general.InstanceName == "" {
		general.InstanceName = "crm-automation"
	}
	if general.LogLevel == "" {
		general.LogLevel = "info"
	}
	if general.LogFormat == "" {
		general.LogFormat = "text"
	}
	if general.Env == "" {
		general.Env = "dev"
	}

	exec := &c.CRMAutomation.Execution
	if exec.StepTimeout <= 0 {
		exec.StepTimeout = 5 * time.Minute
	}

	agent := &c.CRMAutomation.Agent
	if agent.Mode == "" {
		agent.Mode = AgentModeMock
	}
	if agent.Timeout <= 0 {
		agent.Timeout = 30 * time.Second
	}
	if agent.RetryCount == 0 {
		agent.RetryCount = 2
	}

	history := &c.CRMAutomation.Storage.History
	if history.Type == "" {
		history.Type = "sqlite"
	}
	if history.DSN == "" && history.Type == "sqlite" {
		history.DSN = "./data/crm-automation.db"
	}
	if history.MaxOpenConns <= 0 {
		history.MaxOpenConns = 10
	}
	if history.MaxIdleConns <= 0 {
		history.MaxIdleConns = 5
	}
	if history.ConnMaxLifetime <= 0 {
		history.ConnMaxLifetime = 2 * time.Hour
	}

	server := &c.CRMAutomation.Server
	if server.Host == "" {
		server.Host = "0.0.0.0"
	}
	if server.Port <= 0 {
		server.Port = 8080
	}
	if server.ReadTimeout <= 0 {
		server.ReadTimeout = 30 * time.Second
	}
	if server.WriteTimeout <= 0 {
		// 同步执行工作流的请求可能较长
		server.WriteTimeout = 10 * time.Minute
	}

	email := &c.CRMAutomation.Plugins.Email
	if email.SMTPPort <= 0 {
		email.SMTPPort = 25
	}
}

// DefaultEngineConfig 返回应用了默认值的配置
func DefaultEngineConfig() *EngineConfig {
	cfg := &EngineConfig{}
	cfg.ApplyDefaults()
	return cfg
}
