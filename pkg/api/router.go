package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LENAX/crm-automation/pkg/api/handler"
	"github.com/LENAX/crm-automation/pkg/api/middleware"
	"github.com/LENAX/crm-automation/pkg/core/engine"
	"github.com/LENAX/crm-automation/pkg/logger"
)

// RouterOptions 路由依赖
type RouterOptions struct {
	Version string
	// Events 为nil时事件流接口返回503
	Events handler.EventSubscriber
	Logger logger.Logger
}

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, opts RouterOptions) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS())

	// 创建handlers
	workflowHandler := handler.NewWorkflowHandler(eng, log)
	templateHandler := handler.NewTemplateHandler(workflowHandler)
	eventHandler := handler.NewEventHandler(opts.Events, log)
	healthHandler := handler.NewHealthHandler(eng, opts.Version)

	// 健康检查和指标路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", healthHandler.Status)

		// Workflow路由
		workflows := v1.Group("/workflows")
		{
			workflows.GET("", workflowHandler.List)
			workflows.POST("", workflowHandler.Create)
			workflows.GET("/:id", workflowHandler.Get)
			workflows.DELETE("/:id", workflowHandler.Delete)
			workflows.POST("/:id/execute", workflowHandler.Execute)
			workflows.POST("/:id/pause", workflowHandler.Pause)
			workflows.POST("/:id/resume", workflowHandler.Resume)
			workflows.POST("/:id/webhook", workflowHandler.Webhook)
			workflows.DELETE("/:id/schedule", workflowHandler.Unschedule)
			workflows.GET("/:id/runs", workflowHandler.Runs)
		}

		// 模板路由
		templates := v1.Group("/templates")
		{
			templates.GET("", templateHandler.List)
			templates.POST("/:name/instantiate", templateHandler.Instantiate)
		}

		v1.GET("/events/ws", eventHandler.Stream)
	}

	return router
}
