package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LENAX/crm-automation/pkg/storage/dao"
)

const runHistoryTable = "workflow_run_history"

// SQLRunHistoryRepo 执行历史仓库的sqlx实现（对外导出）
type SQLRunHistoryRepo struct {
	db      *sqlx.DB
	dialect Dialect
}

// OpenRunHistoryRepo 按方言打开数据库并创建执行历史仓库
func OpenRunHistoryRepo(dialect Dialect, dsn string, pool PoolConfig) (*SQLRunHistoryRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn不能为空", dialect.Name())
	}
	db, err := sqlx.Open(dialect.DriverName(), dialect.NormalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("配置%s失败: %w", dialect.Name(), err)
		}
	}

	repo, err := NewSQLRunHistoryRepo(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRunHistoryRepo 基于已有连接创建执行历史仓库（对外导出）
func NewSQLRunHistoryRepo(db *sqlx.DB, dialect Dialect) (*SQLRunHistoryRepo, error) {
	repo := &SQLRunHistoryRepo{db: db, dialect: dialect}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return repo, nil
}

// GetDB 获取底层数据库连接（对外导出）
func (r *SQLRunHistoryRepo) GetDB() *sqlx.DB {
	return r.db
}

// Close 关闭数据库连接（对外导出）
func (r *SQLRunHistoryRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRunHistoryRepo) initSchema() error {
	columns := []string{
		"id VARCHAR(64) PRIMARY KEY",
		"workflow_id VARCHAR(64) NOT NULL",
		"workflow_name VARCHAR(255) NOT NULL",
		"trigger_source VARCHAR(32) NOT NULL",
		"status VARCHAR(32) NOT NULL",
		"started_at " + r.dialect.TimestampType() + " NOT NULL",
		"finished_at " + r.dialect.TimestampType() + " NOT NULL",
		"steps_total INTEGER NOT NULL DEFAULT 0",
		"steps_completed INTEGER NOT NULL DEFAULT 0",
		"failed_step VARCHAR(64)",
		"error_message TEXT",
		"snapshot " + r.dialect.LargeTextType(),
	}

	indexSQL := r.dialect.CreateIndexSQL("idx_run_history_workflow", runHistoryTable, "workflow_id", "started_at")
	if indexSQL == "" {
		columns = append(columns, "INDEX idx_run_history_workflow (workflow_id, started_at)")
	}

	createTableSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", runHistoryTable, strings.Join(columns, ",\n\t"))
	if _, err := r.db.Exec(createTableSQL); err != nil {
		return err
	}
	if indexSQL != "" {
		if _, err := r.db.Exec(indexSQL); err != nil {
			return err
		}
	}
	return nil
}

// Save 实现RunHistoryRepository
func (r *SQLRunHistoryRepo) Save(ctx context.Context, record *RunRecord) error {
	if record == nil {
		return fmt.Errorf("执行记录不能为空")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`INSERT INTO %s (
		id, workflow_id, workflow_name, trigger_source, status, started_at, finished_at,
		steps_total, steps_completed, failed_step, error_message, snapshot
	) VALUES (
		:id, :workflow_id, :workflow_name, :trigger_source, :status, :started_at, :finished_at,
		:steps_total, :steps_completed, :failed_step, :error_message, :snapshot
	)`, runHistoryTable)

	if _, err := r.db.NamedExecContext(ctx, query, toRunRecordDAO(record)); err != nil {
		return fmt.Errorf("保存执行记录失败: %w", err)
	}
	return nil
}

// ListByWorkflow 实现RunHistoryRepository
func (r *SQLRunHistoryRepo) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*RunRecord, error) {
	query := fmt.Sprintf(`SELECT id, workflow_id, workflow_name, trigger_source, status, started_at, finished_at,
		steps_total, steps_completed, failed_step, error_message, snapshot
		FROM %s WHERE workflow_id = ? ORDER BY started_at DESC, finished_at DESC`, runHistoryTable)
	args := []any{workflowID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []dao.RunRecordDAO
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("查询执行记录失败: %w", err)
	}

	records := make([]*RunRecord, 0, len(rows))
	for i := range rows {
		records = append(records, fromRunRecordDAO(&rows[i]))
	}
	return records, nil
}

// DeleteByWorkflow 实现RunHistoryRepository
func (r *SQLRunHistoryRepo) DeleteByWorkflow(ctx context.Context, workflowID string) error {
	query := r.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE workflow_id = ?", runHistoryTable))
	if _, err := r.db.ExecContext(ctx, query, workflowID); err != nil {
		return fmt.Errorf("删除执行记录失败: %w", err)
	}
	return nil
}

func toRunRecordDAO(r *RunRecord) *dao.RunRecordDAO {
	return &dao.RunRecordDAO{
		ID:             r.ID,
		WorkflowID:     r.WorkflowID,
		WorkflowName:   r.WorkflowName,
		TriggerSource:  string(r.Trigger),
		Status:         r.Status,
		StartedAt:      r.StartedAt.UTC(),
		FinishedAt:     r.FinishedAt.UTC(),
		StepsTotal:     r.StepsTotal,
		StepsCompleted: r.StepsCompleted,
		FailedStep:     sql.NullString{String: r.FailedStep, Valid: r.FailedStep != ""},
		ErrorMessage:   sql.NullString{String: r.Error, Valid: r.Error != ""},
		Snapshot:       r.Snapshot,
	}
}

func fromRunRecordDAO(d *dao.RunRecordDAO) *RunRecord {
	return &RunRecord{
		ID:             d.ID,
		WorkflowID:     d.WorkflowID,
		WorkflowName:   d.WorkflowName,
		Trigger:        RunTrigger(d.TriggerSource),
		Status:         d.Status,
		StartedAt:      d.StartedAt.In(time.Local),
		FinishedAt:     d.FinishedAt.In(time.Local),
		StepsTotal:     d.StepsTotal,
		StepsCompleted: d.StepsCompleted,
		FailedStep:     d.FailedStep.String,
		Error:          d.ErrorMessage.String,
		Snapshot:       d.Snapshot,
	}
}

var _ RunHistoryRepository = (*SQLRunHistoryRepo)(nil)
