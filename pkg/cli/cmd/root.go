// Package cmd crm-automation命令行工具的cobra命令
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LENAX/crm-automation/pkg/cli/client"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "crm-automation",
	Short: "CRM Automation CLI - CRM工作流自动化命令行工具",
	Long: `CRM Automation CLI 是一个用于管理CRM自动化工作流的命令行工具。

支持的功能：
  - 管理Workflow（创建、列出、查看、删除、执行、暂停、恢复）
  - 管理周期调度（取消周期执行）
  - 使用内置CRM模板创建Workflow
  - 查询执行历史
  - 启动HTTP API服务

使用示例：
  # 列出所有Workflow
  crm-automation workflow list

  # 从YAML文件创建Workflow
  crm-automation workflow create -f lead.yaml

  # 执行Workflow
  crm-automation workflow execute <workflow-id>

  # 使用模板创建Workflow
  crm-automation template instantiate lead_qualification

  # 启动HTTP服务
  crm-automation server start --port 8080`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient 创建API客户端
func newClient() (*client.Client, error) {
	return client.New(serverURL)
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "CRM Automation服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}
