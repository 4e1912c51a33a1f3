// Package api 提供工作流引擎的HTTP API
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/core/engine"
	"github.com/LENAX/crm-automation/pkg/logger"
)

// APIServer HTTP API服务器
type APIServer struct {
	engine     *engine.Engine
	httpServer *http.Server
	config     config.ServerConfig
	opts       RouterOptions
}

// NewAPIServer 创建API服务器
func NewAPIServer(eng *engine.Engine, cfg config.ServerConfig, opts RouterOptions) *APIServer {
	if opts.Logger == nil {
		opts.Logger = logger.Get()
	}
	s := &APIServer{
		engine: eng,
		config: cfg,
		opts:   opts,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      SetupRouter(eng, opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler 返回路由，便于测试
func (s *APIServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *APIServer) Start() error {
	s.opts.Logger.Info("🚀 CRM Automation API Server starting", "addr", s.Addr(), "version", s.opts.Version)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen failed: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭服务器
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.opts.Logger.Info("🛑 Shutting down API Server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.opts.Logger.Info("✅ API Server stopped")
	return nil
}

// Addr 获取服务器地址
func (s *APIServer) Addr() string {
	return s.config.ListenAddr()
}
