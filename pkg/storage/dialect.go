package storage

import "time"

// Dialect 数据库方言（对外导出）
// 执行历史使用同一份sqlx实现，差异只体现在驱动、DSN和DDL类型上
type Dialect interface {
	// Name 方言名称
	Name() string
	// DriverName database/sql驱动名
	DriverName() string
	// NormalizeDSN 补齐驱动需要的DSN参数
	NormalizeDSN(dsn string) string
	// ConfigureDB 连接建立后执行的配置语句
	ConfigureDB() []string
	// TimestampType 时间戳列类型
	TimestampType() string
	// LargeTextType 存放JSON快照的大文本列类型
	LargeTextType() string
	// CreateIndexSQL 返回建索引语句；返回空串表示索引需要写在建表语句内
	CreateIndexSQL(index, table string, columns ...string) string
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
