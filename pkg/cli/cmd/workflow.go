package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/crm-automation/pkg/api/dto"
	"github.com/LENAX/crm-automation/pkg/cli/output"
	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/core/workflow"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	workflowFile   string
	executeAsync   bool
	historyLimit   int
	webhookPayload string
	purgeHistory   bool
)

// workflowCmd workflow子命令
var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Workflow管理命令",
	Long:  `管理CRM自动化工作流，包括创建、查看、执行、暂停、恢复、取消调度和删除。`,
}

// workflowCreateCmd 从YAML文件创建Workflow
var workflowCreateCmd = &cobra.Command{
	Use:   "create -f <file>",
	Short: "从YAML定义文件创建Workflow",
	Long: `从YAML定义文件创建Workflow。

文件格式：
  name: Lead Qualification
  trigger_type: scheduled     # manual | webhook | scheduled
  schedule: every_2hours      # every_<N><minutes|hours|days>
  steps:
    - type: agent_task
      parameters:
        agent_type: sales
        task: Qualify incoming leads`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if workflowFile == "" {
			return fmt.Errorf("请使用 -f 指定工作流定义文件")
		}
		// 本地先校验，错误信息更直接
		if _, err := config.LoadWorkflowConfig(workflowFile); err != nil {
			output.Error("工作流定义无效: %v", err)
			return err
		}
		content, err := os.ReadFile(workflowFile)
		if err != nil {
			return fmt.Errorf("读取文件失败: %w", err)
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.UploadWorkflow(cmd.Context(), string(content))
		if err != nil {
			output.Error("创建失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}
		output.Success("Workflow已创建: %s", result.WorkflowID)
		printSnapshot(result.Workflow, false, nil)
		return nil
	},
}

// workflowListCmd 列出Workflow
var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有Workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.ListWorkflows(cmd.Context())
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}
		if len(result.Items) == 0 {
			output.Info("暂无Workflow")
			return nil
		}

		table := output.NewTable("WORKFLOW_ID", "NAME", "STATUS", "TRIGGER", "STEPS", "NEXT_RUN")
		for _, wf := range result.Items {
			next := "-"
			if wf.NextRunAt != nil {
				next = wf.NextRunAt.Local().Format(timeLayout)
			}
			trigger := string(wf.TriggerType)
			if wf.Schedule != "" {
				trigger += " (" + wf.Schedule + ")"
			}
			table.AddRow(
				wf.ID,
				output.Truncate(wf.Name, 32),
				output.Status(string(wf.Status)),
				trigger,
				fmt.Sprintf("%d/%d", wf.Completed, wf.StepCount),
				next,
			)
		}
		table.Render()
		fmt.Fprintf(output.Stdout, "\n总计: %d 个Workflow\n", result.Total)
		return nil
	},
}

// workflowStatusCmd 查看Workflow状态
var workflowStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "查看Workflow执行状态",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		detail, err := c.GetWorkflow(cmd.Context(), args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(detail)
		}
		printSnapshot(detail.Snapshot, detail.Scheduled, detail.NextRunAt)
		return nil
	},
}

// workflowExecuteCmd 执行Workflow
var workflowExecuteCmd = &cobra.Command{
	Use:   "execute <id>",
	Short: "从第一步开始执行Workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.ExecuteWorkflow(cmd.Context(), args[0], executeAsync)
		if err != nil {
			output.Error("执行失败: %v", err)
			return err
		}
		return printExecuteResult(result)
	},
}

// workflowWebhookCmd 以webhook方式触发Workflow
var workflowWebhookCmd = &cobra.Command{
	Use:   "webhook <id>",
	Short: "以webhook方式触发Workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload map[string]any
		if webhookPayload != "" {
			if err := json.Unmarshal([]byte(webhookPayload), &payload); err != nil {
				return fmt.Errorf("--payload必须是JSON对象: %w", err)
			}
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.TriggerWebhook(cmd.Context(), args[0], payload)
		if err != nil {
			output.Error("触发失败: %v", err)
			return err
		}
		return printExecuteResult(result)
	},
}

// workflowPauseCmd 暂停Workflow
var workflowPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "暂停Workflow（当前步骤结束后生效）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		snap, err := c.PauseWorkflow(cmd.Context(), args[0])
		if err != nil {
			output.Error("暂停失败: %v", err)
			return err
		}
		if outputJSON {
			return output.PrintJSON(snap)
		}
		output.Success("Workflow已暂停: %s (当前步骤 %d/%d)", args[0], snap.CurrentStep+1, snap.TotalSteps)
		return nil
	},
}

// workflowResumeCmd 恢复Workflow
var workflowResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "从第一个未完成的步骤恢复Workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.ResumeWorkflow(cmd.Context(), args[0], executeAsync)
		if err != nil {
			output.Error("恢复失败: %v", err)
			return err
		}
		return printExecuteResult(result)
	},
}

// workflowUnscheduleCmd 取消周期执行
var workflowUnscheduleCmd = &cobra.Command{
	Use:   "unschedule <id>",
	Short: "取消Workflow的周期执行",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.UnscheduleWorkflow(cmd.Context(), args[0]); err != nil {
			output.Error("取消调度失败: %v", err)
			return err
		}
		output.Success("已取消周期执行: %s", args[0])
		return nil
	},
}

// workflowDeleteCmd 删除Workflow
var workflowDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "删除Workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteWorkflow(cmd.Context(), args[0], purgeHistory); err != nil {
			output.Error("删除失败: %v", err)
			return err
		}
		output.Success("Workflow已删除: %s", args[0])
		return nil
	},
}

// workflowHistoryCmd 查询执行历史
var workflowHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "查询Workflow执行历史",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.ListRuns(cmd.Context(), args[0], historyLimit)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}
		if len(result.Items) == 0 {
			output.Info("暂无执行历史")
			return nil
		}

		table := output.NewTable("RUN_ID", "TRIGGER", "STATUS", "STARTED_AT", "DURATION", "STEPS", "ERROR")
		for _, run := range result.Items {
			errMsg := "-"
			if run.Error != "" {
				errMsg = output.Truncate(run.FailedStep+": "+run.Error, 40)
			}
			table.AddRow(
				run.ID,
				string(run.Trigger),
				output.Status(run.Status),
				run.StartedAt.Local().Format(timeLayout),
				run.Duration,
				fmt.Sprintf("%d/%d", run.StepsCompleted, run.StepsTotal),
				errMsg,
			)
		}
		table.Render()
		fmt.Fprintf(output.Stdout, "\n总计: %d 条记录\n", result.Total)
		return nil
	},
}

func init() {
	workflowCreateCmd.Flags().StringVarP(&workflowFile, "file", "f", "", "工作流定义文件（YAML）")
	workflowExecuteCmd.Flags().BoolVar(&executeAsync, "async", false, "后台执行，立即返回")
	workflowResumeCmd.Flags().BoolVar(&executeAsync, "async", false, "后台执行，立即返回")
	workflowWebhookCmd.Flags().StringVar(&webhookPayload, "payload", "", "webhook请求体（JSON对象）")
	workflowHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "返回记录数量限制")
	workflowDeleteCmd.Flags().BoolVar(&purgeHistory, "purge-history", false, "同时删除执行历史")

	workflowCmd.AddCommand(workflowCreateCmd)
	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowStatusCmd)
	workflowCmd.AddCommand(workflowExecuteCmd)
	workflowCmd.AddCommand(workflowWebhookCmd)
	workflowCmd.AddCommand(workflowPauseCmd)
	workflowCmd.AddCommand(workflowResumeCmd)
	workflowCmd.AddCommand(workflowUnscheduleCmd)
	workflowCmd.AddCommand(workflowDeleteCmd)
	workflowCmd.AddCommand(workflowHistoryCmd)
}

// printExecuteResult 输出执行结果；工作流失败不作为命令错误
func printExecuteResult(result *dto.ExecuteResponse) error {
	if outputJSON {
		return output.PrintJSON(result)
	}
	switch {
	case result.Async:
		output.Info("Workflow已提交后台执行: %s", result.WorkflowID)
		return nil
	case result.AlreadyRunning:
		output.Warning("Workflow正在执行中: %s (run %s)", result.WorkflowID, result.RunID)
	case result.Status == string(workflow.StatusFailed):
		output.Error("Workflow执行失败: %s 在 %s: %s", result.WorkflowID, result.FailedStep, result.Error)
	case result.Status == string(workflow.StatusPaused):
		output.Warning("Workflow已暂停: %s", result.WorkflowID)
	default:
		output.Success("Workflow执行完成: %s", result.WorkflowID)
	}
	if result.Workflow != nil {
		printSteps(result.Workflow)
	}
	return nil
}

func printSnapshot(snap *workflow.Snapshot, scheduled bool, next *time.Time) {
	if snap == nil {
		return
	}
	w := output.Stdout
	fmt.Fprintf(w, "Workflow: %s (%s)\n", snap.Name, snap.WorkflowID)
	fmt.Fprintf(w, "Status:   %s\n", output.Status(string(snap.Status)))
	fmt.Fprintf(w, "Trigger:  %s", snap.TriggerType)
	if snap.Schedule != "" {
		fmt.Fprintf(w, " (%s)", snap.Schedule)
	}
	fmt.Fprintln(w)
	if scheduled && next != nil {
		fmt.Fprintf(w, "Next run: %s\n", next.Local().Format(timeLayout))
	}
	fmt.Fprintf(w, "Created:  %s\n", snap.CreatedAt.Local().Format(timeLayout))
	if snap.StartedAt != nil {
		fmt.Fprintf(w, "Started:  %s\n", snap.StartedAt.Local().Format(timeLayout))
	}
	if snap.CompletedAt != nil {
		fmt.Fprintf(w, "Finished: %s\n", snap.CompletedAt.Local().Format(timeLayout))
	}
	printSteps(snap)
}

func printSteps(snap *workflow.Snapshot) {
	w := output.Stdout
	fmt.Fprintf(w, "\nSteps (%d/%d):\n", snap.CompletedSteps(), snap.TotalSteps)
	for _, s := range snap.Steps {
		line := fmt.Sprintf("  %s %-8s %-15s %s", output.StatusIcon(string(s.Status)), s.StepID, s.StepType, s.Status)
		if s.Error != "" {
			line += "  " + output.Truncate(s.Error, 60)
		}
		fmt.Fprintln(w, line)
	}
}
