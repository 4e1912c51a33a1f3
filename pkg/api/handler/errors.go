package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/crm-automation/pkg/api/dto"
	"github.com/LENAX/crm-automation/pkg/core/engine"
	"github.com/LENAX/crm-automation/pkg/templates"
)

// statusFor 将引擎错误映射为HTTP状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrWorkflowNotFound), errors.Is(err, templates.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidTriggerType),
		errors.Is(err, engine.ErrInvalidSchedule),
		errors.Is(err, engine.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrEngineStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, dto.NewErrorResponse(status, err.Error()))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, message))
}

// formatDuration 格式化时长
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
