package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/crm-automation/pkg/api"
	"github.com/LENAX/crm-automation/pkg/cli/output"
	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/core/engine"
	"github.com/LENAX/crm-automation/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	serverPort int
	configPath string
	serverHost string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理CRM Automation HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动CRM Automation HTTP API服务。

示例：
  # 使用默认配置启动（mock Agent，不记录执行历史）
  crm-automation server start

  # 指定端口启动
  crm-automation server start --port 8080

  # 指定配置文件启动
  crm-automation server start --config ./configs/crm-automation.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			for _, p := range []string{
				"./configs/crm-automation.yaml",
				"./config/crm-automation.yaml",
				"./crm-automation.yaml",
			} {
				if _, err := os.Stat(p); err == nil {
					configPath = p
					break
				}
			}
		}
		if configPath != "" {
			output.Info("使用配置文件: %s", configPath)
		} else {
			output.Warning("未找到配置文件，使用默认配置")
		}

		cfg, err := config.LoadEngineConfig(configPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.CRMAutomation.Server.Port = serverPort
		}
		if cmd.Flags().Changed("host") {
			cfg.CRMAutomation.Server.Host = serverHost
		}

		eng, err := engine.NewEngineBuilder(configPath).WithConfig(cfg).Build()
		if err != nil {
			output.Error("创建Engine失败: %v", err)
			return err
		}

		ctx := cmd.Context()
		if err := eng.Start(ctx); err != nil {
			output.Error("启动Engine失败: %v", err)
			return err
		}

		apiServer := api.NewAPIServer(eng, cfg.GetServer(), api.RouterOptions{
			Version: Version,
			Events:  eng.EventBus(),
			Logger:  logger.Get(),
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- apiServer.Start()
		}()

		output.Success("CRM Automation Server started on %s", apiServer.Addr())

		// 等待中断信号或服务器异常退出
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		var serveErr error
		select {
		case <-quit:
		case serveErr = <-errCh:
			if serveErr != nil {
				output.Error("API服务器错误: %v", serveErr)
			}
		}

		output.Info("正在关闭服务...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭API服务器失败: %v", err)
		}

		eng.Stop()
		output.Success("服务已停止")
		if serveErr != nil {
			return fmt.Errorf("api server: %w", serveErr)
		}
		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "监听端口")
	serverStartCmd.Flags().StringVarP(&serverHost, "host", "H", "0.0.0.0", "监听地址")
	serverStartCmd.Flags().StringVarP(&configPath, "config", "c", "", "配置文件路径")

	serverCmd.AddCommand(serverStartCmd)
}
