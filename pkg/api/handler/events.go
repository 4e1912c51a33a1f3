package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/crm-automation/pkg/api/dto"
	"github.com/LENAX/crm-automation/pkg/core/events"
	"github.com/LENAX/crm-automation/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// EventSubscriber 事件订阅能力，由events.Bus实现
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan *events.Event, error)
}

// EventHandler 通过websocket推送工作流生命周期事件
type EventHandler struct {
	subscriber EventSubscriber
	upgrader   websocket.Upgrader
	log        logger.Logger
}

// NewEventHandler 创建EventHandler
func NewEventHandler(subscriber EventSubscriber, log logger.Logger) *EventHandler {
	return &EventHandler{
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Stream 事件流
// GET /api/v1/events/ws?workflow_id=xxx&type=workflow.
// workflow_id精确过滤，type按前缀过滤
func (h *EventHandler) Stream(c *gin.Context) {
	if h.subscriber == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(http.StatusServiceUnavailable, "事件总线未启用"))
		return
	}
	workflowID := c.Query("workflow_id")
	typePrefix := c.Query("type")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("⚠️ websocket升级失败", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := h.subscriber.Subscribe(ctx)
	if err != nil {
		h.log.Error("❌ 订阅事件失败", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(wsWriteWait))
		return
	}

	// 读循环只处理控制帧，客户端断开时结束订阅
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.log.Debug("websocket客户端已连接", "remote", c.ClientIP(), "workflow_id", workflowID)
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case event, ok := <-stream:
			if !ok {
				return
			}
			if workflowID != "" && event.WorkflowID != workflowID {
				continue
			}
			if typePrefix != "" && !strings.HasPrefix(string(event.Type), typePrefix) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				h.log.Debug("websocket写入失败，断开连接", "error", err)
				return
			}
		}
	}
}
