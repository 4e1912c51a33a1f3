package mysql

import (
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/LENAX/crm-automation/pkg/storage"
)

// MySQLDialect MySQL方言实现（对外导出）
type MySQLDialect struct{}

// NewMySQLDialect 创建MySQL方言实例
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

// Name 返回方言名称
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// DriverName 返回驱动名
func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// NormalizeDSN 确保DSN包含parseTime=true
// dsn格式: user:password@tcp(host:port)/dbname
func (d *MySQLDialect) NormalizeDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=true") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// ConfigureDB 返回MySQL配置SQL
func (d *MySQLDialect) ConfigureDB() []string {
	return []string{
		"SET time_zone = '+00:00'",
	}
}

// TimestampType 返回MySQL时间戳类型，保留微秒
func (d *MySQLDialect) TimestampType() string {
	return "DATETIME(6)"
}

// LargeTextType 返回MySQL大文本类型
func (d *MySQLDialect) LargeTextType() string {
	return "LONGTEXT"
}

// CreateIndexSQL MySQL不支持CREATE INDEX IF NOT EXISTS，索引写在建表语句内
func (d *MySQLDialect) CreateIndexSQL(index, table string, columns ...string) string {
	return ""
}

// 确保实现接口
var _ storage.Dialect = (*MySQLDialect)(nil)
