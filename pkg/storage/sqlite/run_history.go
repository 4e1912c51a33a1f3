package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LENAX/crm-automation/pkg/storage"
)

// NewRunHistoryRepoFromDSN 通过DSN创建SQLite执行历史仓库（对外导出）
// 内存数据库每个连接相互独立，因此只保留一个连接；文件数据库会先创建所在目录
func NewRunHistoryRepoFromDSN(dsn string, pool storage.PoolConfig) (*storage.SQLRunHistoryRepo, error) {
	if isMemoryDSN(dsn) {
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
		pool.ConnMaxLifetime = 0
	} else if dir := filepath.Dir(dbPath(dsn)); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}
	return storage.OpenRunHistoryRepo(NewSQLiteDialect(), dsn, pool)
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// dbPath 去掉file:前缀和查询参数后的文件路径
func dbPath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
