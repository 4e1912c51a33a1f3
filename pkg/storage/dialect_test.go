package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LENAX/crm-automation/pkg/storage/mysql"
	"github.com/LENAX/crm-automation/pkg/storage/postgres"
	"github.com/LENAX/crm-automation/pkg/storage/sqlite"
)

func TestMySQLDialect(t *testing.T) {
	d := mysql.NewMySQLDialect()
	assert.Equal(t, "user:pw@tcp(db:3306)/crm?parseTime=true", d.NormalizeDSN("user:pw@tcp(db:3306)/crm"))
	assert.Equal(t, "user:pw@tcp(db:3306)/crm?charset=utf8mb4&parseTime=true", d.NormalizeDSN("user:pw@tcp(db:3306)/crm?charset=utf8mb4"))
	assert.Equal(t, "x?parseTime=true", d.NormalizeDSN("x?parseTime=true"))
	assert.Empty(t, d.CreateIndexSQL("idx", "t", "a"))
	assert.Equal(t, "LONGTEXT", d.LargeTextType())
}

func TestPostgresDialect(t *testing.T) {
	d := postgres.NewPostgresDialect()
	assert.Equal(t, "postgres", d.DriverName())
	assert.Equal(t, "TIMESTAMP", d.TimestampType())
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS idx ON t (a, b)", d.CreateIndexSQL("idx", "t", "a", "b"))
}

func TestSQLiteDialect(t *testing.T) {
	d := sqlite.NewSQLiteDialect()
	assert.Equal(t, "sqlite3", d.DriverName())
	assert.Equal(t, "./data/x.db", d.NormalizeDSN("./data/x.db"))
}
