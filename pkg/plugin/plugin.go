// Package plugin 提供工作流事件驱动的插件机制（如邮件通知）
package plugin

// Plugin 插件接口（对外导出）
type Plugin interface {
	// Name 插件名称，在管理器内唯一
	Name() string
	// Init 使用字符串参数初始化插件
	Init(params map[string]string) error
	// Execute 处理一次触发，data通常为PluginData
	Execute(data any) error
}
