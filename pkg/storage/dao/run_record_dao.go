package dao

import (
	"database/sql"
	"time"
)

// RunRecordDAO workflow_run_history表的数据访问对象（内部使用）
type RunRecordDAO struct {
	ID             string         `db:"id"`
	WorkflowID     string         `db:"workflow_id"`
	WorkflowName   string         `db:"workflow_name"`
	TriggerSource  string         `db:"trigger_source"`
	Status         string         `db:"status"`
	StartedAt      time.Time      `db:"started_at"`
	FinishedAt     time.Time      `db:"finished_at"`
	StepsTotal     int            `db:"steps_total"`
	StepsCompleted int            `db:"steps_completed"`
	FailedStep     sql.NullString `db:"failed_step"`
	ErrorMessage   sql.NullString `db:"error_message"`
	Snapshot       string         `db:"snapshot"` // JSON格式存储
}
