package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/crm-automation/pkg/logger"
)

func TestCronScheduler_RegisterUnregister(t *testing.T) {
	cs := NewCronScheduler(func(string) {}, logger.NewNop())

	require.NoError(t, cs.Register("wf-b", time.Hour))
	require.NoError(t, cs.Register("wf-a", 30*time.Minute))
	assert.Error(t, cs.Register("wf-a", time.Minute), "重复注册")
	assert.Error(t, cs.Register("wf-c", 0))

	assert.Equal(t, 2, cs.Count())
	assert.Equal(t, []string{"wf-a", "wf-b"}, cs.GetRegisteredWorkflows())
	assert.True(t, cs.IsRegistered("wf-a"))
	d, ok := cs.Interval("wf-a")
	require.True(t, ok)
	assert.Equal(t, 30*time.Minute, d)

	// 未启动时没有下一次执行时间
	next, ok := cs.NextRun("wf-b")
	assert.True(t, ok)
	assert.True(t, next.IsZero())

	assert.True(t, cs.Unregister("wf-a"))
	assert.False(t, cs.Unregister("wf-a"))
	assert.False(t, cs.IsRegistered("wf-a"))
	_, ok = cs.NextRun("wf-a")
	assert.False(t, ok)
	assert.Equal(t, 1, cs.Count())
}

func TestCronScheduler_Fires(t *testing.T) {
	var fired atomic.Int32
	cs := NewCronScheduler(func(id string) {
		if id == "wf-tick" {
			fired.Add(1)
		}
	}, logger.NewNop())
	require.NoError(t, cs.Register("wf-tick", time.Second))

	cs.Start()
	cs.Start()
	defer cs.Stop(time.Second)

	next, ok := cs.NextRun("wf-tick")
	require.True(t, ok)
	assert.False(t, next.IsZero())

	require.Eventually(t, func() bool { return fired.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestCronScheduler_StopWithoutStart(t *testing.T) {
	cs := NewCronScheduler(func(string) {}, logger.NewNop())
	cs.Stop(time.Second)
	assert.Equal(t, 0, cs.Count())
}
