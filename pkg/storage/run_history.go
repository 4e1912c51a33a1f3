// Package storage 定义工作流执行历史的存储接口
// 执行历史只做审计记录，引擎不会从中恢复工作流状态
package storage

import (
	"context"
	"time"
)

// RunTrigger 一次执行的触发来源
type RunTrigger string

const (
	RunTriggerManual    RunTrigger = "manual"
	RunTriggerScheduled RunTrigger = "scheduled"
	RunTriggerResume    RunTrigger = "resume"
	RunTriggerWebhook   RunTrigger = "webhook"
)

// RunRecord 一次工作流执行的结果记录
type RunRecord struct {
	ID             string     `db:"id" json:"run_id"`
	WorkflowID     string     `db:"workflow_id" json:"workflow_id"`
	WorkflowName   string     `db:"workflow_name" json:"workflow_name"`
	Trigger        RunTrigger `db:"trigger_source" json:"trigger"`
	Status         string     `db:"status" json:"status"`
	StartedAt      time.Time  `db:"started_at" json:"started_at"`
	FinishedAt     time.Time  `db:"finished_at" json:"finished_at"`
	StepsTotal     int        `db:"steps_total" json:"steps_total"`
	StepsCompleted int        `db:"steps_completed" json:"steps_completed"`
	FailedStep     string     `db:"failed_step" json:"failed_step,omitempty"`
	Error          string     `db:"error_message" json:"error,omitempty"`
	Snapshot       string     `db:"snapshot" json:"-"`
}

// Duration 执行耗时
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunHistoryRepository 执行历史仓库
type RunHistoryRepository interface {
	// Save 追加一条执行记录
	Save(ctx context.Context, record *RunRecord) error
	// ListByWorkflow 按开始时间倒序返回某工作流的执行记录，limit<=0表示不限
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*RunRecord, error)
	// DeleteByWorkflow 删除某工作流的全部记录
	DeleteByWorkflow(ctx context.Context, workflowID string) error
	// Close 释放底层连接
	Close() error
}
