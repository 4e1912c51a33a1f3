package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/LENAX/crm-automation/pkg/api/dto"
	"github.com/LENAX/crm-automation/pkg/cli/output"
)

var (
	templateName     string
	templateTrigger  string
	templateSchedule string
)

// templateCmd template子命令
var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "内置CRM工作流模板",
}

// templateListCmd 列出模板
var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出内置模板",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.ListTemplates(cmd.Context())
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}
		table := output.NewTable("KEY", "NAME", "TRIGGER", "STEPS")
		for _, tpl := range result.Items {
			trigger := tpl.TriggerType
			if tpl.Schedule != "" {
				trigger += " (" + tpl.Schedule + ")"
			}
			table.AddRow(tpl.Key, tpl.Name, trigger, strings.Join(tpl.StepTypes, " → "))
		}
		table.Render()
		return nil
	},
}

// templateInstantiateCmd 按模板创建Workflow
var templateInstantiateCmd = &cobra.Command{
	Use:   "instantiate <key>",
	Short: "按模板创建Workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.InstantiateTemplate(cmd.Context(), args[0], dto.InstantiateTemplateRequest{
			Name:        templateName,
			TriggerType: templateTrigger,
			Schedule:    templateSchedule,
		})
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

func init() {
	templateInstantiateCmd.Flags().StringVar(&templateName, "name", "", "工作流名称，默认使用模板名称")
	templateInstantiateCmd.Flags().StringVar(&templateTrigger, "trigger", "", "触发方式 (manual/webhook/scheduled)")
	templateInstantiateCmd.Flags().StringVar(&templateSchedule, "schedule", "", "调度间隔，例如 every_2hours")

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateInstantiateCmd)
}
