package postgres

import (
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/LENAX/crm-automation/pkg/storage"
)

// PostgresDialect PostgreSQL方言实现（对外导出）
type PostgresDialect struct{}

// NewPostgresDialect 创建PostgreSQL方言实例
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

// Name 返回方言名称
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// DriverName 返回驱动名
// 注意：sqlx按驱动名选择$1, $2占位符
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// NormalizeDSN PostgreSQL的DSN原样使用
func (d *PostgresDialect) NormalizeDSN(dsn string) string {
	return dsn
}

// ConfigureDB 返回PostgreSQL配置SQL
func (d *PostgresDialect) ConfigureDB() []string {
	return []string{
		"SET timezone = 'UTC';",
	}
}

// TimestampType 返回PostgreSQL时间戳类型
func (d *PostgresDialect) TimestampType() string {
	return "TIMESTAMP"
}

// LargeTextType 返回PostgreSQL文本类型
func (d *PostgresDialect) LargeTextType() string {
	return "TEXT"
}

// CreateIndexSQL 返回建索引语句
func (d *PostgresDialect) CreateIndexSQL(index, table string, columns ...string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", index, table, strings.Join(columns, ", "))
}

// 确保实现接口
var _ storage.Dialect = (*PostgresDialect)(nil)
