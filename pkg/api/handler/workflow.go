package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/crm-automation/pkg/api/dto"
	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/core/engine"
	"github.com/LENAX/crm-automation/pkg/core/workflow"
	"github.com/LENAX/crm-automation/pkg/logger"
)

// WorkflowHandler Workflow API处理器
type WorkflowHandler struct {
	engine *engine.Engine
	log    logger.Logger
}

// NewWorkflowHandler 创建WorkflowHandler
func NewWorkflowHandler(eng *engine.Engine, log logger.Logger) *WorkflowHandler {
	return &WorkflowHandler{engine: eng, log: log}
}

// Create 创建Workflow
// POST /api/v1/workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("请求参数错误: %v", err))
		return
	}

	def := &config.WorkflowConfig{
		Name:        req.Name,
		Description: req.Description,
		TriggerType: req.TriggerType,
		Schedule:    req.Schedule,
		Steps:       req.Steps,
	}
	if strings.TrimSpace(req.Content) != "" {
		parsed, err := config.ParseWorkflowConfig([]byte(req.Content))
		if err != nil {
			badRequest(c, fmt.Sprintf("工作流定义无效: %v", err))
			return
		}
		def = parsed
	}
	if strings.TrimSpace(def.Name) == "" {
		badRequest(c, "name不能为空")
		return
	}

	h.createFrom(c, def)
}

// createFrom 创建工作流并返回201
func (h *WorkflowHandler) createFrom(c *gin.Context, def *config.WorkflowConfig) {
	ctx := c.Request.Context()
	id, err := h.engine.CreateWorkflow(ctx, def.Name, def.Steps, workflow.TriggerType(def.TriggerType), def.Schedule,
		engine.WithDescription(def.Description))
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.engine.GetWorkflowStatus(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.CreateWorkflowResponse{
		WorkflowID: id,
		Workflow:   snap,
	}))
}

// List 列出所有Workflow
// GET /api/v1/workflows
func (h *WorkflowHandler) List(c *gin.Context) {
	snaps := h.engine.ListWorkflows(c.Request.Context())

	items := make([]dto.WorkflowSummary, 0, len(snaps))
	for _, snap := range snaps {
		summary := dto.NewWorkflowSummary(snap)
		summary.Scheduled, summary.NextRunAt = h.schedule(snap.WorkflowID)
		items = append(items, summary)
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.WorkflowSummary]{
		Total:   len(items),
		Items:   items,
		HasMore: false,
	}))
}

// Get 获取Workflow详情
// GET /api/v1/workflows/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	snap, err := h.engine.GetWorkflowStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	detail := dto.WorkflowDetail{Snapshot: snap}
	detail.Scheduled, detail.NextRunAt = h.schedule(snap.WorkflowID)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(detail))
}

// Delete 删除Workflow，purge_history=true时同时删除执行历史
// DELETE /api/v1/workflows/:id
func (h *WorkflowHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	var query dto.DeleteQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, fmt.Sprintf("查询参数错误: %v", err))
		return
	}
	var opts []engine.DeleteOption
	if query.PurgeHistory {
		opts = append(opts, engine.WithHistoryPurge())
	}
	if err := h.engine.DeleteWorkflow(c.Request.Context(), id, opts...); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMessageResponse("工作流已删除", map[string]string{"workflow_id": id}))
}

// Execute 执行Workflow
// POST /api/v1/workflows/:id/execute
func (h *WorkflowHandler) Execute(c *gin.Context) {
	id := c.Param("id")
	h.run(c, id, func(ctx context.Context) (*engine.ExecutionReport, error) {
		return h.engine.ExecuteWorkflow(ctx, id)
	})
}

// Webhook 以webhook方式触发Workflow，请求体作为trigger_payload
// POST /api/v1/workflows/:id/webhook
func (h *WorkflowHandler) Webhook(c *gin.Context) {
	id := c.Param("id")

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, fmt.Sprintf("webhook请求体必须是JSON对象: %v", err))
		return
	}
	h.run(c, id, func(ctx context.Context) (*engine.ExecutionReport, error) {
		return h.engine.TriggerWebhook(ctx, id, payload)
	})
}

// Pause 暂停Workflow
// POST /api/v1/workflows/:id/pause
func (h *WorkflowHandler) Pause(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.engine.PauseWorkflow(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.engine.GetWorkflowStatus(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMessageResponse("工作流将在当前步骤结束后暂停", snap))
}

// Resume 恢复Workflow，从第一个未完成的步骤继续
// POST /api/v1/workflows/:id/resume
func (h *WorkflowHandler) Resume(c *gin.Context) {
	id := c.Param("id")
	h.run(c, id, func(ctx context.Context) (*engine.ExecutionReport, error) {
		return h.engine.ResumeWorkflow(ctx, id)
	})
}

// Unschedule 取消周期执行
// DELETE /api/v1/workflows/:id/schedule
func (h *WorkflowHandler) Unschedule(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.UnscheduleWorkflow(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMessageResponse("已取消周期执行", map[string]string{"workflow_id": id}))
}

// Runs 查询执行历史
// GET /api/v1/workflows/:id/runs
func (h *WorkflowHandler) Runs(c *gin.Context) {
	var query dto.HistoryQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, fmt.Sprintf("查询参数错误: %v", err))
		return
	}

	records, err := h.engine.ListRuns(c.Request.Context(), c.Param("id"), query.GetDefaultLimit())
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]dto.RunSummary, 0, len(records))
	for _, r := range records {
		items = append(items, dto.RunSummary{RunRecord: r, Duration: formatDuration(r.Duration())})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.RunSummary]{
		Total:   len(items),
		Items:   items,
		HasMore: len(items) == query.GetDefaultLimit(),
	}))
}

// run 同步或异步执行，async=true时立即返回202
func (h *WorkflowHandler) run(c *gin.Context, id string, exec func(ctx context.Context) (*engine.ExecutionReport, error)) {
	var query dto.ExecuteQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, fmt.Sprintf("查询参数错误: %v", err))
		return
	}

	if query.Async {
		snap, err := h.engine.GetWorkflowStatus(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		// 后台执行不随请求结束而取消
		ctx := context.WithoutCancel(c.Request.Context())
		go func() {
			if _, err := exec(ctx); err != nil {
				h.log.Warn("⚠️ 后台执行工作流失败", "workflow_id", id, "error", err)
			}
		}()
		c.JSON(http.StatusAccepted, dto.NewMessageResponse("工作流已提交执行", dto.ExecuteResponse{
			WorkflowID: id,
			Status:     string(snap.Status),
			Async:      true,
		}))
		return
	}

	report, err := exec(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.ExecuteResponse{
		WorkflowID:     id,
		RunID:          report.RunID,
		AlreadyRunning: report.AlreadyRunning,
		Workflow:       report.Workflow,
	}
	message := "success"
	if report.Workflow != nil {
		resp.Status = string(report.Workflow.Status)
		for _, s := range report.Workflow.Steps {
			if s.Status == workflow.StepFailed {
				resp.FailedStep = s.StepID
				resp.Error = s.Error
				break
			}
		}
	}
	if report.AlreadyRunning {
		message = "工作流正在执行中"
	}
	c.JSON(http.StatusOK, dto.NewMessageResponse(message, resp))
}

// schedule 周期执行状态；引擎未启动时没有下一次执行时间
func (h *WorkflowHandler) schedule(id string) (bool, *time.Time) {
	if !h.engine.IsScheduled(id) {
		return false, nil
	}
	next, ok := h.engine.NextScheduledRun(id)
	if !ok || next.IsZero() {
		return true, nil
	}
	return true, &next
}
