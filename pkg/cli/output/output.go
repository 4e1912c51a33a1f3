// Package output CLI输出：彩色消息、JSON和表格
package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/fatih/color"
)

// Stdout 输出目标，测试时可以替换
var Stdout io.Writer = os.Stdout

// PrintJSON 输出JSON格式
func PrintJSON(data any) error {
	encoder := json.NewEncoder(Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Success 输出成功消息
func Success(format string, args ...any) {
	color.New(color.FgGreen, color.Bold).Fprintf(Stdout, "✅ "+format+"\n", args...)
}

// Error 输出错误消息
func Error(format string, args ...any) {
	color.New(color.FgRed, color.Bold).Fprintf(Stdout, "❌ "+format+"\n", args...)
}

// Info 输出信息
func Info(format string, args ...any) {
	color.New(color.FgCyan).Fprintf(Stdout, "ℹ️  "+format+"\n", args...)
}

// Warning 输出警告
func Warning(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(Stdout, "⚠️  "+format+"\n", args...)
}

// Status 工作流/步骤状态带图标显示
func Status(status string) string {
	return StatusIcon(status) + " " + status
}

// StatusIcon 状态图标
func StatusIcon(status string) string {
	switch status {
	case "completed":
		return "✅"
	case "failed":
		return "❌"
	case "running":
		return "🔄"
	case "paused":
		return "⏸️"
	case "pending", "created":
		return "⏳"
	default:
		return "❓"
	}
}

// Truncate 截断过长的文本
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
