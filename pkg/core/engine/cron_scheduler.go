package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/crm-automation/pkg/logger"
	"github.com/LENAX/crm-automation/pkg/metrics"
)

// CronScheduler 周期调度器（对外导出）
// 每个scheduled工作流对应一个固定间隔的cron条目；条目在Start之前注册也有效，Start之后才会触发
type CronScheduler struct {
	cron      *cron.Cron
	trigger   func(workflowID string)
	entries   map[string]cron.EntryID  // workflowID -> cron.EntryID映射
	intervals map[string]time.Duration // workflowID -> 执行间隔
	log       logger.Logger
	started   bool
	mu        sync.RWMutex
}

// NewCronScheduler 创建周期调度器，trigger在每次到期时被调用
func NewCronScheduler(trigger func(workflowID string), log logger.Logger) *CronScheduler {
	adapter := cronLogger{log: log}
	return &CronScheduler{
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter)),
		),
		trigger:   trigger,
		entries:   make(map[string]cron.EntryID),
		intervals: make(map[string]time.Duration),
		log:       log,
	}
}

// Register 注册固定间隔的周期执行
func (cs *CronScheduler) Register(workflowID string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("工作流 %s 的调度间隔必须大于0", workflowID)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.entries[workflowID]; exists {
		return fmt.Errorf("工作流 %s 已注册到周期调度器", workflowID)
	}

	entryID := cs.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		cs.trigger(workflowID)
	}))
	cs.entries[workflowID] = entryID
	cs.intervals[workflowID] = interval
	metrics.ScheduledWorkflows.Inc()

	cs.log.Info("✅ [周期调度器] 已注册工作流", "workflow_id", workflowID, "interval", interval)
	return nil
}

// Unregister 取消注册，返回是否存在
func (cs *CronScheduler) Unregister(workflowID string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entryID, exists := cs.entries[workflowID]
	if !exists {
		return false
	}
	cs.cron.Remove(entryID)
	delete(cs.entries, workflowID)
	delete(cs.intervals, workflowID)
	metrics.ScheduledWorkflows.Dec()

	cs.log.Info("✅ [周期调度器] 已取消注册工作流", "workflow_id", workflowID)
	return true
}

// IsRegistered 工作流是否有周期执行
func (cs *CronScheduler) IsRegistered(workflowID string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.entries[workflowID]
	return ok
}

// Interval 返回已注册的间隔
func (cs *CronScheduler) Interval(workflowID string) (time.Duration, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	d, ok := cs.intervals[workflowID]
	return d, ok
}

// NextRun 下一次触发时间；调度器未启动时为零值
func (cs *CronScheduler) NextRun(workflowID string) (time.Time, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	entryID, ok := cs.entries[workflowID]
	if !ok {
		return time.Time{}, false
	}
	return cs.cron.Entry(entryID).Next, true
}

// Count 已注册的工作流数量
func (cs *CronScheduler) Count() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.entries)
}

// GetRegisteredWorkflows 获取已注册的工作流ID列表（对外导出）
func (cs *CronScheduler) GetRegisteredWorkflows() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	ids := make([]string, 0, len(cs.entries))
	for id := range cs.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start 启动调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.started {
		return
	}
	cs.cron.Start()
	cs.started = true
	cs.log.Info("✅ [周期调度器] 已启动", "entries", len(cs.entries))
}

// Stop 停止调度器并等待正在执行的任务结束，最多等待timeout
func (cs *CronScheduler) Stop(timeout time.Duration) {
	cs.mu.Lock()
	if !cs.started {
		cs.mu.Unlock()
		return
	}
	cs.started = false
	cs.mu.Unlock()

	done := cs.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		cs.log.Warn("⚠️ [周期调度器] 等待执行中的任务超时")
	}
	cs.log.Info("✅ [周期调度器] 已停止")
}

// cronLogger 将cron的日志接入logger包
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("[cron] "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("❌ [cron] "+msg, append(keysAndValues, "error", err)...)
}
