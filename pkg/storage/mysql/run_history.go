package mysql

import "github.com/LENAX/crm-automation/pkg/storage"

// NewRunHistoryRepoFromDSN 通过DSN创建MySQL执行历史仓库（对外导出）
func NewRunHistoryRepoFromDSN(dsn string, pool storage.PoolConfig) (*storage.SQLRunHistoryRepo, error) {
	return storage.OpenRunHistoryRepo(NewMySQLDialect(), dsn, pool)
}
