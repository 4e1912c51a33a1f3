package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	internalstorage "github.com/LENAX/crm-automation/internal/storage"
	"github.com/LENAX/crm-automation/pkg/agent"
	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/core/events"
	"github.com/LENAX/crm-automation/pkg/core/executor"
	"github.com/LENAX/crm-automation/pkg/logger"
	"github.com/LENAX/crm-automation/pkg/plugin"
	"github.com/LENAX/crm-automation/pkg/storage"
)

// EngineBuilder 引擎构建器（链式调用）
type EngineBuilder struct {
	engineConfigPath string
	cfg              *config.EngineConfig
	exec             executor.StepExecutor
	history          storage.RunHistoryRepository
	plugins          map[string]plugin.Plugin // 已注册的插件
	pluginBindings   []plugin.PluginBinding   // 插件绑定规则
	log              logger.Logger
	err              error
}

// NewEngineBuilder 创建引擎构建器（入口），配置文件不存在时使用默认配置
func NewEngineBuilder(engineConfigPath string) *EngineBuilder {
	return &EngineBuilder{
		engineConfigPath: engineConfigPath,
		plugins:          make(map[string]plugin.Plugin),
		pluginBindings:   make([]plugin.PluginBinding, 0),
	}
}

// WithConfig 直接使用已加载的配置，忽略配置文件路径（链式）
func (b *EngineBuilder) WithConfig(cfg *config.EngineConfig) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if cfg == nil {
		b.err = errors.New("engine config cannot be nil")
		return b
	}
	b.cfg = cfg
	return b
}

// WithExecutor 使用指定的StepExecutor，不再按agent配置创建（链式）
func (b *EngineBuilder) WithExecutor(exec executor.StepExecutor) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if exec == nil {
		b.err = errors.New("step executor cannot be nil")
		return b
	}
	b.exec = exec
	return b
}

// WithHistory 使用指定的执行历史仓库，不再按storage配置创建（链式）
func (b *EngineBuilder) WithHistory(repo storage.RunHistoryRepository) *EngineBuilder {
	if b.err != nil {
		return b
	}
	b.history = repo
	return b
}

// WithLogger 使用指定的Logger，不再按general配置初始化全局日志（链式）
func (b *EngineBuilder) WithLogger(l logger.Logger) *EngineBuilder {
	if b.err != nil {
		return b
	}
	b.log = l
	return b
}

// WithPlugin 注册插件（链式）
func (b *EngineBuilder) WithPlugin(p plugin.Plugin) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if p == nil {
		b.err = errors.New("plugin cannot be nil")
		return b
	}
	name := p.Name()
	if name == "" {
		b.err = errors.New("plugin name cannot be empty")
		return b
	}
	b.plugins[name] = p
	return b
}

// WithPluginBinding 绑定插件到事件（链式）
func (b *EngineBuilder) WithPluginBinding(binding plugin.PluginBinding) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if binding.PluginName == "" {
		b.err = errors.New("plugin name cannot be empty")
		return b
	}
	if binding.Event == "" {
		b.err = errors.New("trigger event cannot be empty")
		return b
	}
	if _, exists := b.plugins[binding.PluginName]; !exists {
		b.err = fmt.Errorf("plugin %s not registered, please register it first using WithPlugin", binding.PluginName)
		return b
	}
	b.pluginBindings = append(b.pluginBindings, binding)
	return b
}

// Build 构建引擎实例（最终步骤）
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}

	// 1. 加载并校验配置
	cfg := b.cfg
	if cfg == nil {
		loaded, err := config.LoadEngineConfig(b.engineConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load engine config failed: %w", err)
		}
		cfg = loaded
	} else {
		cfg.ApplyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate engine config failed: %w", err)
	}

	// 2. 日志
	log := b.log
	if log == nil {
		logger.Init(&logger.Config{
			Level:  logger.LogLevel(cfg.GetLogLevel()),
			JSON:   cfg.IsJSONLog(),
			Prefix: cfg.CRMAutomation.General.InstanceName,
		})
		log = logger.Get()
	}

	// 3. Agent后端
	exec := b.exec
	if exec == nil {
		created, err := agent.NewExecutorFromConfig(cfg.GetAgent(), log)
		if err != nil {
			return nil, fmt.Errorf("create agent executor failed: %w", err)
		}
		exec = created
	}

	// 4. 执行历史
	history := b.history
	ownsHistory := false
	if history == nil {
		repo, err := internalstorage.NewRunHistoryFromConfig(cfg.GetHistory())
		if err != nil {
			return nil, fmt.Errorf("init history storage failed: %w", err)
		}
		if repo != nil {
			log.Info("✅ 执行历史存储已启用", "type", cfg.GetHistory().Type)
			history = repo
			ownsHistory = true
		}
	}

	// 5. 插件
	pm, err := b.initPlugins(cfg.GetEmail(), log)
	if err != nil {
		if ownsHistory {
			_ = history.Close()
		}
		return nil, err
	}

	// 6. 事件总线
	bus := events.NewBus()

	opts := []Option{
		WithLogger(log),
		WithEventPublisher(bus),
		WithPluginManager(pm),
		WithStrictValidation(cfg.IsStrictValidation()),
		WithStepTimeout(cfg.GetStepTimeout()),
	}
	if history != nil {
		opts = append(opts, WithHistory(history))
	}
	eng, err := NewEngine(exec, opts...)
	if err != nil {
		_ = bus.Close()
		if ownsHistory {
			_ = history.Close()
		}
		return nil, fmt.Errorf("create engine failed: %w", err)
	}

	eng.bus = bus
	eng.closers = append(eng.closers, bus.Close)
	if ownsHistory {
		eng.closers = append(eng.closers, history.Close)
	}
	return eng, nil
}

// initPlugins 注册构建器中的插件；配置启用email时注册邮件插件并绑定通知和失败事件
func (b *EngineBuilder) initPlugins(email config.EmailConfig, log logger.Logger) (plugin.PluginManager, error) {
	pm := plugin.NewPluginManager()

	for name, p := range b.plugins {
		if err := pm.Register(p); err != nil {
			return nil, fmt.Errorf("register plugin %s failed: %w", name, err)
		}
	}
	for _, binding := range b.pluginBindings {
		if binding.Params != nil {
			if err := b.plugins[binding.PluginName].Init(binding.Params); err != nil {
				return nil, fmt.Errorf("init plugin %s failed: %w", binding.PluginName, err)
			}
		}
		if err := pm.Bind(binding); err != nil {
			return nil, fmt.Errorf("bind plugin %s failed: %w", binding.PluginName, err)
		}
	}

	if !email.Enabled {
		return pm, nil
	}
	if _, exists := b.plugins["email"]; exists {
		return pm, nil
	}
	params := map[string]string{
		"smtp_host": email.SMTPHost,
		"smtp_port": strconv.Itoa(email.SMTPPort),
		"username":  email.Username,
		"password":  email.Password,
		"from":      email.From,
		"to":        strings.TrimSpace(email.To),
	}
	if err := pm.RegisterWithInit(plugin.NewEmailPlugin(), params); err != nil {
		return nil, fmt.Errorf("init email plugin failed: %w", err)
	}
	for _, event := range []plugin.TriggerEvent{plugin.EventNotificationSent, plugin.EventWorkflowFailed} {
		if err := pm.Bind(plugin.PluginBinding{PluginName: "email", Event: event}); err != nil {
			return nil, fmt.Errorf("bind email plugin failed: %w", err)
		}
	}
	log.Info("📧 邮件插件已启用", "smtp_host", email.SMTPHost)
	return pm, nil
}
