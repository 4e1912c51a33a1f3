package storage

import (
	"fmt"

	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/storage"
	"github.com/LENAX/crm-automation/pkg/storage/mysql"
	"github.com/LENAX/crm-automation/pkg/storage/postgres"
	pkgsqlite "github.com/LENAX/crm-automation/pkg/storage/sqlite"
)

// NewRunHistoryFactory 按数据库类型创建执行历史仓库（内部方法）
// dbType: 数据库类型（sqlite/mysql/postgres）
// dsn: 数据库连接字符串
func NewRunHistoryFactory(dbType, dsn string, pool storage.PoolConfig) (storage.RunHistoryRepository, error) {
	switch dbType {
	case "sqlite":
		repo, err := pkgsqlite.NewRunHistoryRepoFromDSN(dsn, pool)
		if err != nil {
			return nil, fmt.Errorf("create sqlite repository failed: %w", err)
		}
		return repo, nil
	case "mysql":
		repo, err := mysql.NewRunHistoryRepoFromDSN(dsn, pool)
		if err != nil {
			return nil, fmt.Errorf("create mysql repository failed: %w", err)
		}
		return repo, nil
	case "postgres", "postgresql":
		repo, err := postgres.NewRunHistoryRepoFromDSN(dsn, pool)
		if err != nil {
			return nil, fmt.Errorf("create postgres repository failed: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// NewRunHistoryFromConfig 按配置创建执行历史仓库；未启用时返回nil
func NewRunHistoryFromConfig(cfg config.HistoryConfig) (storage.RunHistoryRepository, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return NewRunHistoryFactory(cfg.Type, cfg.DSN, storage.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
}
