package dto

import "github.com/LENAX/crm-automation/pkg/core/workflow"

// CreateWorkflowRequest 创建Workflow请求
// Content非空时按YAML工作流定义解析，忽略其他字段
type CreateWorkflowRequest struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Steps       []workflow.StepDefinition `json:"steps"`
	TriggerType string                    `json:"trigger_type"`
	Schedule    string                    `json:"schedule"`
	Content     string                    `json:"content"`
}

// InstantiateTemplateRequest 模板实例化请求，字段为空时使用模板中的值
type InstantiateTemplateRequest struct {
	Name        string `json:"name"`
	TriggerType string `json:"trigger_type"`
	Schedule    string `json:"schedule"`
}

// ExecuteQueryRequest 执行请求的查询参数
type ExecuteQueryRequest struct {
	// Async 为true时立即返回202，执行在后台进行
	Async bool `form:"async"`
}

// DeleteQueryRequest 删除请求的查询参数
type DeleteQueryRequest struct {
	// PurgeHistory 为true时同时删除执行历史
	PurgeHistory bool `form:"purge_history"`
}

// HistoryQueryRequest 执行历史查询请求
type HistoryQueryRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// GetDefaultLimit 获取默认limit
func (r *HistoryQueryRequest) GetDefaultLimit() int {
	if r.Limit <= 0 {
		return 20
	}
	return r.Limit
}
