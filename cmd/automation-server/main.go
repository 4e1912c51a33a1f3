package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LENAX/crm-automation/pkg/api"
	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/core/engine"
	"github.com/LENAX/crm-automation/pkg/logger"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./configs/crm-automation.yaml", "引擎配置文件路径")
	host := flag.String("host", "", "监听地址，覆盖配置文件")
	port := flag.Int("port", 0, "监听端口，覆盖配置文件")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadEngineConfig(*configPath)
	if err != nil {
		logger.Get().Error("加载配置失败", "error", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.CRMAutomation.Server.Host = *host
	}
	if *port > 0 {
		cfg.CRMAutomation.Server.Port = *port
	}

	// 2. 构建Engine（同时初始化全局日志）
	eng, err := engine.NewEngineBuilder(*configPath).WithConfig(cfg).Build()
	if err != nil {
		logger.Get().Error("创建Engine失败", "error", err)
		os.Exit(1)
	}
	log := logger.Get()
	log.Info("CRM Automation Server", "version", Version, "commit", GitCommit, "build_time", BuildTime, "config", *configPath)

	// 3. 启动Engine
	if err := eng.Start(context.Background()); err != nil {
		log.Error("启动Engine失败", "error", err)
		os.Exit(1)
	}

	// 4. 创建并在goroutine中启动API服务器
	apiServer := api.NewAPIServer(eng, cfg.GetServer(), api.RouterOptions{
		Version: Version,
		Events:  eng.EventBus(),
		Logger:  log,
	})
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Error("API服务器错误", "error", err)
		}
	}()

	log.Info("✅ CRM Automation Server started", "addr", apiServer.Addr())

	// 5. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")

	// 6. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("关闭API服务器失败", "error", err)
	}

	eng.Stop()
	log.Info("✅ 服务已停止")
}
