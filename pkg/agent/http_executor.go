package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/LENAX/crm-automation/pkg/core/executor"
	"github.com/LENAX/crm-automation/pkg/logger"
)

// HTTPConfig 远端Agent服务配置
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int // 负数表示不重试
}

// HTTPExecutor 通过Agent服务的 /agent/chat 和 /agent/delegate 接口执行步骤
type HTTPExecutor struct {
	client *resty.Client
	log    logger.Logger
}

type chatRequest struct {
	Message string         `json:"message"`
	UserID  string         `json:"user_id,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

type delegateRequest struct {
	AgentType string         `json:"agent_type"`
	Task      string         `json:"task"`
	Context   map[string]any `json:"context,omitempty"`
}

// errorBody Agent服务的错误响应 {"detail": "..."}
type errorBody struct {
	Detail any `json:"detail"`
}

// NewHTTPExecutor 创建HTTPExecutor
func NewHTTPExecutor(cfg HTTPConfig, log logger.Logger) (*HTTPExecutor, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("agent base_url无效: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return nil, fmt.Errorf("agent base_url必须是http(s)绝对地址: %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	retries := cfg.RetryCount
	if retries < 0 {
		retries = 0
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	client.AddRetryCondition(retryCondition)

	return &HTTPExecutor{client: client, log: log}, nil
}

// retryCondition 网络错误、5xx和429时重试；调用方取消时不重试
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// Process 实现executor.StepExecutor
func (h *HTTPExecutor) Process(ctx context.Context, task string, userContext map[string]any) *executor.AgentResponse {
	return h.post(ctx, "/agent/chat", CoreAgentType, chatRequest{
		Message: task,
		UserID:  executor.WorkflowSystemUser,
		Context: userContext,
	})
}

// Delegate 实现executor.StepExecutor
func (h *HTTPExecutor) Delegate(ctx context.Context, specialist, task string, taskContext map[string]any) *executor.AgentResponse {
	return h.post(ctx, "/agent/delegate", specialist, delegateRequest{
		AgentType: specialist,
		Task:      task,
		Context:   taskContext,
	})
}

func (h *HTTPExecutor) post(ctx context.Context, path, agentType string, body any) *executor.AgentResponse {
	var result executor.AgentResponse
	var apiErr errorBody
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		h.log.Warn("⚠️ 调用Agent服务失败", "path", path, "agent_type", agentType, "error", err)
		return executor.Failure(agentType, fmt.Sprintf("调用Agent服务失败: %v", err))
	}
	if resp.IsError() {
		detail := resp.Status()
		if apiErr.Detail != nil {
			detail = fmt.Sprint(apiErr.Detail)
		}
		h.log.Warn("⚠️ Agent服务返回错误", "path", path, "status", resp.StatusCode(), "detail", detail)
		return executor.Failure(agentType, fmt.Sprintf("Agent服务返回%d: %s", resp.StatusCode(), detail))
	}

	if result.AgentType == "" {
		result.AgentType = agentType
	}
	if result.ActionsTaken == nil {
		result.ActionsTaken = []string{}
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	return &result
}

var _ executor.StepExecutor = (*HTTPExecutor)(nil)
