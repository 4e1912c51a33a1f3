package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/crm-automation/pkg/cli/output"
)

// statusCmd 引擎整体状态
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查看引擎整体状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		status, err := c.Status(cmd.Context())
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(status)
		}
		w := output.Stdout
		fmt.Fprintf(w, "System:    %s\n", status.SystemStatus)
		fmt.Fprintf(w, "Workflows: %d\n", status.TotalWorkflows)
		fmt.Fprintf(w, "  %s created    %d\n", output.StatusIcon("created"), status.Created)
		fmt.Fprintf(w, "  %s running    %d\n", output.StatusIcon("running"), status.Running)
		fmt.Fprintf(w, "  %s paused     %d\n", output.StatusIcon("paused"), status.Paused)
		fmt.Fprintf(w, "  %s completed  %d\n", output.StatusIcon("completed"), status.Completed)
		fmt.Fprintf(w, "  %s failed     %d\n", output.StatusIcon("failed"), status.Failed)
		fmt.Fprintf(w, "Scheduled: %d\n", status.Scheduled)
		return nil
	},
}
