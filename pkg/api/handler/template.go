package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/crm-automation/pkg/api/dto"
	"github.com/LENAX/crm-automation/pkg/templates"
)

// TemplateHandler 工作流模板API处理器
type TemplateHandler struct {
	workflows *WorkflowHandler
}

// NewTemplateHandler 创建TemplateHandler
func NewTemplateHandler(workflows *WorkflowHandler) *TemplateHandler {
	return &TemplateHandler{workflows: workflows}
}

// List 列出内置模板
// GET /api/v1/templates
func (h *TemplateHandler) List(c *gin.Context) {
	all, err := templates.List()
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]dto.TemplateSummary, 0, len(all))
	for _, tpl := range all {
		stepTypes := make([]string, 0, len(tpl.Config.Steps))
		for _, s := range tpl.Config.Steps {
			stepTypes = append(stepTypes, s.Type)
		}
		items = append(items, dto.TemplateSummary{
			Key:         tpl.Key,
			Name:        tpl.Config.Name,
			Description: tpl.Config.Description,
			TriggerType: string(tpl.Config.Trigger()),
			Schedule:    tpl.Config.Schedule,
			StepTypes:   stepTypes,
		})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.TemplateSummary]{
		Total: len(items),
		Items: items,
	}))
}

// Instantiate 按模板创建工作流
// POST /api/v1/templates/:name/instantiate
func (h *TemplateHandler) Instantiate(c *gin.Context) {
	var req dto.InstantiateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, fmt.Sprintf("请求参数错误: %v", err))
		return
	}

	tpl, err := templates.Get(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	def := tpl.Config
	if req.Name != "" {
		def.Name = req.Name
	}
	if req.TriggerType != "" {
		def.TriggerType = req.TriggerType
		if req.Schedule == "" {
			def.Schedule = ""
		}
	}
	if req.Schedule != "" {
		def.Schedule = req.Schedule
	}

	h.workflows.createFrom(c, def)
}
