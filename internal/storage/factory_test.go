package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/crm-automation/pkg/config"
	"github.com/LENAX/crm-automation/pkg/storage"
)

func TestNewRunHistoryFactory_SQLite(t *testing.T) {
	repo, err := NewRunHistoryFactory("sqlite", "file:factory_test?mode=memory&cache=shared", storage.PoolConfig{})
	require.NoError(t, err)
	defer repo.Close()

	now := time.Now()
	require.NoError(t, repo.Save(context.Background(), &storage.RunRecord{
		WorkflowID:   "wf-1",
		WorkflowName: "demo",
		Trigger:      storage.RunTriggerManual,
		Status:       "completed",
		StartedAt:    now,
		FinishedAt:   now,
	}))
	records, err := repo.ListByWorkflow(context.Background(), "wf-1", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestNewRunHistoryFactory_Unsupported(t *testing.T) {
	_, err := NewRunHistoryFactory("oracle", "x", storage.PoolConfig{})
	assert.Error(t, err)
}

func TestNewRunHistoryFromConfig_Disabled(t *testing.T) {
	repo, err := NewRunHistoryFromConfig(config.HistoryConfig{Enabled: false, Type: "sqlite"})
	require.NoError(t, err)
	assert.Nil(t, repo)
}
