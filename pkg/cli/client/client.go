// Package client CRM Automation HTTP API客户端，供CLI使用
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/LENAX/crm-automation/pkg/api/dto"
	"github.com/LENAX/crm-automation/pkg/core/engine"
	"github.com/LENAX/crm-automation/pkg/core/workflow"
)

// DefaultTimeout 默认请求超时；同步执行工作流可能较久
const DefaultTimeout = 10 * time.Minute

// APIError 服务端返回的错误
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound 是否为404错误
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client HTTP API客户端
type Client struct {
	client *resty.Client
}

// New 创建客户端
func New(baseURL string) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("服务器地址无效: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("服务器地址必须是http(s)绝对地址: %q", baseURL)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second)
	// 只重试连接错误，避免重复执行工作流
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil && !errors.Is(err, context.Canceled)
	})

	return &Client{client: client}, nil
}

// SetTimeout 设置请求超时
func (c *Client) SetTimeout(d time.Duration) *Client {
	c.client.SetTimeout(d)
	return c
}

// ========== Workflow API ==========

// ListWorkflows 列出所有Workflow
func (c *Client) ListWorkflows(ctx context.Context) (*dto.ListResponse[dto.WorkflowSummary], error) {
	return do[dto.ListResponse[dto.WorkflowSummary]](ctx, c.client.R(), http.MethodGet, "/api/v1/workflows")
}

// GetWorkflow 获取Workflow详情
func (c *Client) GetWorkflow(ctx context.Context, id string) (*dto.WorkflowDetail, error) {
	return do[dto.WorkflowDetail](ctx, c.client.R(), http.MethodGet, "/api/v1/workflows/"+url.PathEscape(id))
}

// CreateWorkflow 创建Workflow
func (c *Client) CreateWorkflow(ctx context.Context, req dto.CreateWorkflowRequest) (*dto.CreateWorkflowResponse, error) {
	return do[dto.CreateWorkflowResponse](ctx, c.client.R().SetBody(req), http.MethodPost, "/api/v1/workflows")
}

// UploadWorkflow 以YAML定义创建Workflow
func (c *Client) UploadWorkflow(ctx context.Context, yamlContent string) (*dto.CreateWorkflowResponse, error) {
	return c.CreateWorkflow(ctx, dto.CreateWorkflowRequest{Content: yamlContent})
}

// DeleteWorkflow 删除Workflow，purgeHistory为true时同时删除执行历史
func (c *Client) DeleteWorkflow(ctx context.Context, id string, purgeHistory bool) error {
	req := c.client.R()
	if purgeHistory {
		req.SetQueryParam("purge_history", "true")
	}
	_, err := do[map[string]string](ctx, req, http.MethodDelete, "/api/v1/workflows/"+url.PathEscape(id))
	return err
}

// ExecuteWorkflow 执行Workflow，async为true时服务端立即返回
func (c *Client) ExecuteWorkflow(ctx context.Context, id string, async bool) (*dto.ExecuteResponse, error) {
	req := c.client.R()
	if async {
		req.SetQueryParam("async", "true")
	}
	return do[dto.ExecuteResponse](ctx, req, http.MethodPost, "/api/v1/workflows/"+url.PathEscape(id)+"/execute")
}

// TriggerWebhook 以webhook方式触发Workflow
func (c *Client) TriggerWebhook(ctx context.Context, id string, payload map[string]any) (*dto.ExecuteResponse, error) {
	req := c.client.R()
	if payload != nil {
		req.SetBody(payload)
	}
	return do[dto.ExecuteResponse](ctx, req, http.MethodPost, "/api/v1/workflows/"+url.PathEscape(id)+"/webhook")
}

// PauseWorkflow 暂停Workflow
func (c *Client) PauseWorkflow(ctx context.Context, id string) (*workflow.Snapshot, error) {
	return do[workflow.Snapshot](ctx, c.client.R(), http.MethodPost, "/api/v1/workflows/"+url.PathEscape(id)+"/pause")
}

// ResumeWorkflow 恢复Workflow
func (c *Client) ResumeWorkflow(ctx context.Context, id string, async bool) (*dto.ExecuteResponse, error) {
	req := c.client.R()
	if async {
		req.SetQueryParam("async", "true")
	}
	return do[dto.ExecuteResponse](ctx, req, http.MethodPost, "/api/v1/workflows/"+url.PathEscape(id)+"/resume")
}

// UnscheduleWorkflow 取消周期执行
func (c *Client) UnscheduleWorkflow(ctx context.Context, id string) error {
	_, err := do[map[string]string](ctx, c.client.R(), http.MethodDelete, "/api/v1/workflows/"+url.PathEscape(id)+"/schedule")
	return err
}

// ListRuns 查询执行历史
func (c *Client) ListRuns(ctx context.Context, id string, limit int) (*dto.ListResponse[dto.RunSummary], error) {
	req := c.client.R()
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	return do[dto.ListResponse[dto.RunSummary]](ctx, req, http.MethodGet, "/api/v1/workflows/"+url.PathEscape(id)+"/runs")
}

// ========== Template API ==========

// ListTemplates 列出内置模板
func (c *Client) ListTemplates(ctx context.Context) (*dto.ListResponse[dto.TemplateSummary], error) {
	return do[dto.ListResponse[dto.TemplateSummary]](ctx, c.client.R(), http.MethodGet, "/api/v1/templates")
}

// InstantiateTemplate 按模板创建Workflow
func (c *Client) InstantiateTemplate(ctx context.Context, key string, req dto.InstantiateTemplateRequest) (*dto.CreateWorkflowResponse, error) {
	return do[dto.CreateWorkflowResponse](ctx, c.client.R().SetBody(req), http.MethodPost, "/api/v1/templates/"+url.PathEscape(key)+"/instantiate")
}

// ========== System API ==========

// Status 引擎整体状态
func (c *Client) Status(ctx context.Context) (*engine.EngineStatus, error) {
	return do[engine.EngineStatus](ctx, c.client.R(), http.MethodGet, "/api/v1/status")
}

// Health 健康检查
func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	return do[dto.HealthResponse](ctx, c.client.R(), http.MethodGet, "/health")
}

// do 发送请求并解开APIResponse信封
func do[T any](ctx context.Context, req *resty.Request, method, path string) (*T, error) {
	var result dto.APIResponse[T]
	var failure dto.APIResponse[any]
	resp, err := req.
		SetContext(ctx).
		SetResult(&result).
		SetError(&failure).
		Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	if resp.IsError() {
		message := failure.Message
		if message == "" {
			message = strings.TrimSpace(resp.String())
		}
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: message}
	}
	if result.Code != 0 {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: result.Message}
	}
	return &result.Data, nil
}
