// Package engine 工作流自动化引擎：注册、执行、暂停/恢复以及周期调度
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/crm-automation/pkg/core/condition"
	"github.com/LENAX/crm-automation/pkg/core/events"
	"github.com/LENAX/crm-automation/pkg/core/executor"
	"github.com/LENAX/crm-automation/pkg/core/workflow"
	"github.com/LENAX/crm-automation/pkg/logger"
	"github.com/LENAX/crm-automation/pkg/metrics"
	"github.com/LENAX/crm-automation/pkg/plugin"
	"github.com/LENAX/crm-automation/pkg/storage"
)

const (
	// SystemStatusHealthy GetStatus返回的系统状态
	SystemStatusHealthy = "healthy"

	defaultStopTimeout    = 10 * time.Second
	historyWriteTimeout   = 5 * time.Second
	defaultHistoryListCap = 50
)

// Engine 工作流引擎核心结构体（对外导出）
type Engine struct {
	exec          executor.StepExecutor
	evaluator     *condition.Evaluator
	workflows     map[string]*workflow.Workflow // workflowID -> Workflow
	order         []string                      // 创建顺序，用于列表
	runs          map[string]*run               // workflowID -> 正在执行的run（执行令牌）
	scheduler     *CronScheduler
	publisher     events.Publisher
	pluginManager plugin.PluginManager
	history       storage.RunHistoryRepository
	bus           *events.Bus    // 由EngineBuilder创建时非nil
	closers       []func() error // Stop时按注册顺序关闭
	log           logger.Logger
	strict        bool
	stepTimeout   time.Duration
	stopTimeout   time.Duration
	ctx           context.Context // 周期执行使用的引擎上下文
	cancel        context.CancelFunc
	started       bool
	stopped       bool
	mu            sync.RWMutex
}

// run 一次执行持有的令牌；存在即表示有goroutine正在推进该工作流
type run struct {
	id        string
	trigger   storage.RunTrigger
	payload   map[string]any
	startedAt time.Time
}

// ExecutionReport ExecuteWorkflow/ResumeWorkflow的返回
type ExecutionReport struct {
	Workflow *workflow.Snapshot `json:"workflow"`
	// AlreadyRunning 已有执行在进行，本次调用未启动新的执行
	AlreadyRunning bool   `json:"already_running"`
	RunID          string `json:"run_id,omitempty"`
}

// EngineStatus 引擎整体状态
type EngineStatus struct {
	TotalWorkflows int    `json:"total_workflows"`
	Created        int    `json:"created"`
	Running        int    `json:"running"`
	Completed      int    `json:"completed"`
	Failed         int    `json:"failed"`
	Paused         int    `json:"paused"`
	Scheduled      int    `json:"scheduled"`
	SystemStatus   string `json:"system_status"`
}

// Option 引擎选项
type Option func(*Engine)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEventPublisher 设置生命周期事件的发布者
func WithEventPublisher(p events.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithPluginManager 设置插件管理器
func WithPluginManager(pm plugin.PluginManager) Option {
	return func(e *Engine) {
		e.pluginManager = pm
	}
}

// WithHistory 设置执行历史仓库
func WithHistory(repo storage.RunHistoryRepository) Option {
	return func(e *Engine) {
		e.history = repo
	}
}

// WithStrictValidation 严格模式下未知触发方式和无法解析的schedule会使创建失败
func WithStrictValidation(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithStepTimeout 设置agent_task/data_operation步骤的超时，0表示不限制
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.stepTimeout = d
	}
}

// WithStopTimeout Stop时等待周期执行结束的最长时间
func WithStopTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.stopTimeout = d
		}
	}
}

// WithEvaluator 设置condition步骤使用的求值器
func WithEvaluator(ev *condition.Evaluator) Option {
	return func(e *Engine) {
		if ev != nil {
			e.evaluator = ev
		}
	}
}

// NewEngine 创建Engine实例（对外导出的工厂方法）
func NewEngine(exec executor.StepExecutor, opts ...Option) (*Engine, error) {
	if exec == nil {
		return nil, fmt.Errorf("StepExecutor不能为空")
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		exec:        exec,
		evaluator:   condition.NewEvaluator(),
		workflows:   make(map[string]*workflow.Workflow),
		runs:        make(map[string]*run),
		publisher:   events.Discard,
		log:         logger.Get(),
		strict:      true,
		stopTimeout: defaultStopTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.scheduler = NewCronScheduler(e.runScheduled, e.log)
	return e, nil
}

// Start 启动引擎：开始触发周期执行（对外导出）
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}
	if e.started {
		return nil
	}
	e.started = true
	e.scheduler.Start()
	e.log.Info("✅ 工作流引擎已启动", "workflows", len(e.workflows), "scheduled", e.scheduler.Count())
	return nil
}

// Stop 停止引擎：取消周期执行并等待其结束（对外导出）
// 手动触发的执行使用调用方的ctx，不受影响
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	e.cancel()
	e.scheduler.Stop(e.stopTimeout)
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			e.log.Warn("⚠️ 释放引擎资源失败", "error", err)
		}
	}
	e.log.Info("✅ 工作流引擎已停止")
}

// EventBus 生命周期事件总线，未通过EngineBuilder创建时为nil
func (e *Engine) EventBus() *events.Bus {
	return e.bus
}

// CreateOption 创建工作流的可选参数
type CreateOption func(*workflow.Workflow)

// WithDescription 设置工作流描述
func WithDescription(desc string) CreateOption {
	return func(wf *workflow.Workflow) {
		wf.Description = desc
	}
}

// DeleteOption 删除工作流的可选参数
type DeleteOption func(*deleteOptions)

type deleteOptions struct {
	purgeHistory bool
}

// WithHistoryPurge 删除工作流时一并删除其执行历史
func WithHistoryPurge() DeleteOption {
	return func(o *deleteOptions) {
		o.purgeHistory = true
	}
}

// CreateWorkflow 注册新工作流，返回工作流ID
// scheduled工作流在创建时即注册周期执行，引擎Start后开始触发
func (e *Engine) CreateWorkflow(
	ctx context.Context,
	name string,
	steps []workflow.StepDefinition,
	trigger workflow.TriggerType,
	schedule string,
	opts ...CreateOption,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if trigger == "" {
		trigger = workflow.TriggerManual
	}
	if !trigger.IsValid() {
		if e.strict {
			return "", fmt.Errorf("%w: %q", ErrInvalidTriggerType, trigger)
		}
		e.log.Warn("⚠️ 未知的触发方式，按非周期工作流处理", "trigger_type", trigger)
	}

	var interval time.Duration
	if trigger == workflow.TriggerScheduled {
		if e.strict {
			d, err := workflow.ParseSchedule(schedule)
			if err != nil {
				return "", err
			}
			interval = d
		} else if schedule != "" {
			d, ok := workflow.ScheduleInterval(schedule)
			if !ok {
				e.log.Warn("⚠️ schedule无法解析，使用默认间隔", "schedule", schedule, "interval", d)
			}
			interval = d
		}
	}

	wf, err := workflow.NewWorkflow(name, steps, trigger, schedule)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	for _, opt := range opts {
		opt(wf)
	}

	e.mu.Lock()
	e.workflows[wf.ID] = wf
	e.order = append(e.order, wf.ID)
	e.mu.Unlock()

	e.log.Info("✅ 创建工作流成功", "workflow_id", wf.ID, "name", name, "steps", len(wf.Steps), "trigger_type", trigger)
	e.emit(ctx, events.NewEvent(events.EventWorkflowCreated, wf.ID, wf.Name).
		WithStatus(string(workflow.StatusCreated)).
		WithPayload("total_steps", len(wf.Steps)).
		WithMetadata("trigger_type", string(trigger)))

	if interval > 0 {
		if err := e.scheduler.Register(wf.ID, interval); err != nil {
			e.log.Error("❌ 注册周期执行失败", "workflow_id", wf.ID, "error", err)
		} else {
			e.emit(ctx, events.NewEvent(events.EventScheduleRegistered, wf.ID, wf.Name).
				WithPayload("schedule", schedule).
				WithPayload("interval_seconds", interval.Seconds()))
		}
	}
	return wf.ID, nil
}

// ExecuteWorkflow 从第一步开始执行工作流，返回结束时的快照
// 步骤失败不作为error返回：工作流状态为failed，错误记录在步骤上
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowID string) (*ExecutionReport, error) {
	return e.execute(ctx, workflowID, storage.RunTriggerManual, nil)
}

// TriggerWebhook 执行webhook触发的工作流，payload对步骤可见
func (e *Engine) TriggerWebhook(ctx context.Context, workflowID string, payload map[string]any) (*ExecutionReport, error) {
	e.mu.RLock()
	wf, ok := e.workflows[workflowID]
	var trigger workflow.TriggerType
	if ok {
		trigger = wf.TriggerType
	}
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	if trigger != workflow.TriggerWebhook {
		return nil, fmt.Errorf("%w: 工作流 %s 的触发方式为 %s，不接受webhook", ErrInvalidState, workflowID, trigger)
	}
	return e.execute(ctx, workflowID, storage.RunTriggerWebhook, payload)
}

func (e *Engine) execute(ctx context.Context, workflowID string, trigger storage.RunTrigger, payload map[string]any) (*ExecutionReport, error) {
	e.mu.Lock()
	wf, ok := e.workflows[workflowID]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	// 状态检查与获取令牌在同一把锁内完成
	if current, busy := e.runs[workflowID]; busy {
		snap := wf.Snapshot()
		e.mu.Unlock()
		e.log.Info("⏭️ 工作流正在执行，忽略本次触发", "workflow_id", workflowID, "trigger", trigger)
		return &ExecutionReport{Workflow: snap, AlreadyRunning: true, RunID: current.id}, nil
	}
	now := time.Now()
	wf.ResetForRun(now)
	r := &run{id: uuid.NewString(), trigger: trigger, payload: payload, startedAt: now}
	e.runs[workflowID] = r
	name, total := wf.Name, len(wf.Steps)
	e.mu.Unlock()

	e.log.Info("🚀 开始执行工作流", "workflow_id", workflowID, "name", name, "run_id", r.id, "trigger", trigger, "steps", total)
	e.emit(ctx, events.NewEvent(events.EventWorkflowStarted, workflowID, name).
		WithStatus(string(workflow.StatusRunning)).
		WithMetadata("run_id", r.id).
		WithMetadata("trigger", string(trigger)))
	e.triggerPlugins(ctx, plugin.EventWorkflowStarted, plugin.PluginData{
		WorkflowID:   workflowID,
		WorkflowName: name,
		Status:       string(workflow.StatusRunning),
	})

	return e.runSteps(ctx, wf, r), nil
}

// runSteps 从第一个未完成的步骤开始顺序执行，直到完成、失败或在步骤边界观察到暂停
func (e *Engine) runSteps(ctx context.Context, wf *workflow.Workflow, r *run) *ExecutionReport {
	for {
		e.mu.Lock()
		// 全部完成优先于暂停：最后一步执行中收到的暂停不再生效
		idx := wf.FirstIncompleteStep()
		if idx >= len(wf.Steps) {
			now := time.Now()
			wf.Status = workflow.StatusCompleted
			wf.CompletedAt = &now
			return e.finishRunLocked(ctx, wf, r)
		}
		wf.CurrentStep = idx
		if wf.Status == workflow.StatusPaused {
			return e.finishRunLocked(ctx, wf, r)
		}
		step := wf.Steps[idx]
		step.Start(time.Now())
		sc := newStepContext(wf, r)
		stepID, spec := step.ID, step.Spec
		e.mu.Unlock()

		e.log.Info("▶️ 执行步骤", "workflow_id", wf.ID, "step_id", stepID, "step_type", spec.StepType())
		e.emit(ctx, events.NewEvent(events.EventStepStarted, wf.ID, sc.workflowName).
			WithStep(stepID).
			WithStatus(string(workflow.StepRunning)).
			WithMetadata("step_type", string(spec.StepType())))

		started := time.Now()
		result, err := e.executeStep(ctx, sc, stepID, spec)
		elapsed := time.Since(started)

		e.mu.Lock()
		finished := time.Now()
		if err != nil {
			step.Fail(err.Error(), finished)
			wf.Status = workflow.StatusFailed
			metrics.ObserveStep(string(spec.StepType()), string(workflow.StepFailed), elapsed)
			e.log.Error("❌ 步骤执行失败", "workflow_id", wf.ID, "step_id", stepID, "error", err)
			return e.finishRunLocked(ctx, wf, r)
		}
		step.Complete(result, finished)
		e.mu.Unlock()

		metrics.ObserveStep(string(spec.StepType()), string(workflow.StepCompleted), elapsed)
		e.log.Info("✅ 步骤执行完成", "workflow_id", wf.ID, "step_id", stepID, "elapsed", elapsed)
		e.emit(ctx, events.NewEvent(events.EventStepCompleted, wf.ID, sc.workflowName).
			WithStep(stepID).
			WithStatus(string(workflow.StepCompleted)).
			WithPayload("result", result))
	}
}

// finishRunLocked 在持有锁时释放执行令牌并结束本次执行，返回前释放锁
func (e *Engine) finishRunLocked(ctx context.Context, wf *workflow.Workflow, r *run) *ExecutionReport {
	delete(e.runs, wf.ID)
	snap := wf.Snapshot()
	e.mu.Unlock()

	metrics.ObserveRun(string(snap.Status))
	data := plugin.PluginData{
		WorkflowID:   snap.WorkflowID,
		WorkflowName: snap.Name,
		Status:       string(snap.Status),
		Data: map[string]any{
			"run_id":          r.id,
			"completed_steps": snap.CompletedSteps(),
			"total_steps":     snap.TotalSteps,
		},
	}

	switch snap.Status {
	case workflow.StatusCompleted:
		e.log.Info("🎉 工作流执行完成", "workflow_id", snap.WorkflowID, "run_id", r.id)
		e.emit(ctx, events.NewEvent(events.EventWorkflowCompleted, snap.WorkflowID, snap.Name).
			WithStatus(string(snap.Status)).
			WithMetadata("run_id", r.id))
		e.triggerPlugins(ctx, plugin.EventWorkflowCompleted, data)
	case workflow.StatusFailed:
		failed, _ := snap.FailedStep()
		e.log.Error("❌ 工作流执行失败", "workflow_id", snap.WorkflowID, "run_id", r.id, "step_id", failed.StepID, "error", failed.Error)
		e.emit(ctx, events.NewEvent(events.EventStepFailed, snap.WorkflowID, snap.Name).
			WithStep(failed.StepID).
			WithStatus(string(workflow.StepFailed)).
			WithPayload("error", failed.Error))
		e.emit(ctx, events.NewEvent(events.EventWorkflowFailed, snap.WorkflowID, snap.Name).
			WithStep(failed.StepID).
			WithStatus(string(snap.Status)).
			WithPayload("error", failed.Error).
			WithMetadata("run_id", r.id))
		data.StepID = failed.StepID
		data.Error = errors.New(failed.Error)
		e.triggerPlugins(ctx, plugin.EventStepFailed, data)
		e.triggerPlugins(ctx, plugin.EventWorkflowFailed, data)
	case workflow.StatusPaused:
		e.log.Info("⏸️ 工作流已在步骤边界暂停", "workflow_id", snap.WorkflowID, "current_step", snap.CurrentStep)
	}

	e.recordRun(ctx, snap, r)
	return &ExecutionReport{Workflow: snap, RunID: r.id}
}

// PauseWorkflow 暂停执行中的工作流，在当前步骤结束后生效
func (e *Engine) PauseWorkflow(ctx context.Context, workflowID string) error {
	e.mu.Lock()
	wf, ok := e.workflows[workflowID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	if !wf.Status.CanTransitionTo(workflow.StatusPaused) {
		status := wf.Status
		e.mu.Unlock()
		return fmt.Errorf("%w: 只能暂停running状态的工作流，当前为 %s", ErrInvalidState, status)
	}
	wf.Status = workflow.StatusPaused
	name, current := wf.Name, wf.CurrentStep
	e.mu.Unlock()

	e.log.Info("⏸️ 暂停工作流", "workflow_id", workflowID, "current_step", current)
	e.emit(ctx, events.NewEvent(events.EventWorkflowPaused, workflowID, name).
		WithStatus(string(workflow.StatusPaused)).
		WithPayload("current_step", current))
	e.triggerPlugins(ctx, plugin.EventWorkflowPaused, plugin.PluginData{
		WorkflowID:   workflowID,
		WorkflowName: name,
		Status:       string(workflow.StatusPaused),
	})
	return nil
}

// ResumeWorkflow 从第一个未完成的步骤继续执行暂停的工作流
// 如果暂停前的执行仍在进行当前步骤，只把状态改回running，由原执行继续
func (e *Engine) ResumeWorkflow(ctx context.Context, workflowID string) (*ExecutionReport, error) {
	e.mu.Lock()
	wf, ok := e.workflows[workflowID]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	if wf.Status != workflow.StatusPaused {
		status := wf.Status
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: 只能恢复paused状态的工作流，当前为 %s", ErrInvalidState, status)
	}
	wf.Status = workflow.StatusRunning
	name := wf.Name

	if current, busy := e.runs[workflowID]; busy {
		snap := wf.Snapshot()
		e.mu.Unlock()
		e.log.Info("▶️ 恢复工作流，原执行继续", "workflow_id", workflowID, "run_id", current.id)
		e.emitResumed(ctx, workflowID, name, snap.CurrentStep)
		return &ExecutionReport{Workflow: snap, AlreadyRunning: true, RunID: current.id}, nil
	}

	if next := wf.FirstIncompleteStep(); next < len(wf.Steps) {
		wf.CurrentStep = next
	}
	wf.CompletedAt = nil
	r := &run{id: uuid.NewString(), trigger: storage.RunTriggerResume, startedAt: time.Now()}
	e.runs[workflowID] = r
	current := wf.CurrentStep
	e.mu.Unlock()

	e.log.Info("▶️ 恢复工作流", "workflow_id", workflowID, "run_id", r.id, "from_step", current)
	e.emitResumed(ctx, workflowID, name, current)
	return e.runSteps(ctx, wf, r), nil
}

func (e *Engine) emitResumed(ctx context.Context, workflowID, name string, current int) {
	e.emit(ctx, events.NewEvent(events.EventWorkflowResumed, workflowID, name).
		WithStatus(string(workflow.StatusRunning)).
		WithPayload("current_step", current))
	e.triggerPlugins(ctx, plugin.EventWorkflowResumed, plugin.PluginData{
		WorkflowID:   workflowID,
		WorkflowName: name,
		Status:       string(workflow.StatusRunning),
	})
}

// UnscheduleWorkflow 取消工作流的周期执行
func (e *Engine) UnscheduleWorkflow(ctx context.Context, workflowID string) error {
	e.mu.Lock()
	wf, ok := e.workflows[workflowID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	name := wf.Name
	e.mu.Unlock()

	if !e.scheduler.Unregister(workflowID) {
		return fmt.Errorf("%w: 工作流 %s 没有周期执行", ErrInvalidState, workflowID)
	}
	e.emit(ctx, events.NewEvent(events.EventScheduleRemoved, workflowID, name))
	return nil
}

// DeleteWorkflow 删除未在执行中的工作流及其周期执行
// 执行历史默认保留，WithHistoryPurge时一并删除
func (e *Engine) DeleteWorkflow(ctx context.Context, workflowID string, opts ...DeleteOption) error {
	var o deleteOptions
	for _, opt := range opts {
		opt(&o)
	}

	e.mu.Lock()
	wf, ok := e.workflows[workflowID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	if _, busy := e.runs[workflowID]; busy || wf.Status == workflow.StatusRunning {
		e.mu.Unlock()
		return fmt.Errorf("%w: 工作流 %s 正在执行，不能删除", ErrInvalidState, workflowID)
	}
	delete(e.workflows, workflowID)
	for i, id := range e.order {
		if id == workflowID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	name := wf.Name
	e.mu.Unlock()

	if e.scheduler.Unregister(workflowID) {
		e.emit(ctx, events.NewEvent(events.EventScheduleRemoved, workflowID, name))
	}
	e.log.Info("🗑️ 删除工作流", "workflow_id", workflowID, "name", name)
	e.emit(ctx, events.NewEvent(events.EventWorkflowDeleted, workflowID, name))

	if o.purgeHistory && e.history != nil {
		if err := e.history.DeleteByWorkflow(ctx, workflowID); err != nil {
			return fmt.Errorf("工作流已删除，但清理执行历史失败: %w", err)
		}
		e.log.Info("🗑️ 已清理执行历史", "workflow_id", workflowID)
	}
	return nil
}

// ListWorkflows 按创建顺序返回所有工作流的快照
func (e *Engine) ListWorkflows(ctx context.Context) []*workflow.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*workflow.Snapshot, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.workflows[id].Snapshot())
	}
	return out
}

// GetWorkflowStatus 获取单个工作流的快照
func (e *Engine) GetWorkflowStatus(ctx context.Context, workflowID string) (*workflow.Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	wf, ok := e.workflows[workflowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}
	return wf.Snapshot(), nil
}

// GetStatus 汇总所有工作流的状态
func (e *Engine) GetStatus(ctx context.Context) EngineStatus {
	e.mu.RLock()
	status := EngineStatus{
		TotalWorkflows: len(e.workflows),
		SystemStatus:   SystemStatusHealthy,
	}
	for _, wf := range e.workflows {
		switch wf.Status {
		case workflow.StatusCreated:
			status.Created++
		case workflow.StatusRunning:
			status.Running++
		case workflow.StatusCompleted:
			status.Completed++
		case workflow.StatusFailed:
			status.Failed++
		case workflow.StatusPaused:
			status.Paused++
		}
	}
	e.mu.RUnlock()
	status.Scheduled = e.scheduler.Count()
	return status
}

// IsScheduled 工作流是否注册了周期执行
func (e *Engine) IsScheduled(workflowID string) bool {
	return e.scheduler.IsRegistered(workflowID)
}

// NextScheduledRun 下一次周期执行时间，引擎未启动时为零值
func (e *Engine) NextScheduledRun(workflowID string) (time.Time, bool) {
	return e.scheduler.NextRun(workflowID)
}

// ListRuns 查询工作流的执行历史，未配置历史存储时返回空
func (e *Engine) ListRuns(ctx context.Context, workflowID string, limit int) ([]*storage.RunRecord, error) {
	if e.history == nil {
		return []*storage.RunRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryListCap
	}
	records, err := e.history.ListByWorkflow(ctx, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("查询执行历史失败: %w", err)
	}
	return records, nil
}

// runScheduled 周期执行入口，错误只记录日志
func (e *Engine) runScheduled(workflowID string) {
	if e.ctx.Err() != nil {
		return
	}
	e.log.Info("🕐 [周期调度器] 触发工作流执行", "workflow_id", workflowID)
	report, err := e.execute(e.ctx, workflowID, storage.RunTriggerScheduled, nil)
	if err != nil {
		e.log.Error("❌ [周期调度器] 周期执行失败", "workflow_id", workflowID, "error", err)
		return
	}
	if report.AlreadyRunning {
		return
	}
	e.log.Info("✅ [周期调度器] 周期执行结束", "workflow_id", workflowID, "status", report.Workflow.Status)
}

func (e *Engine) emit(ctx context.Context, event *events.Event) {
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.log.Warn("⚠️ 发布事件失败", "event_type", event.Type, "workflow_id", event.WorkflowID, "error", err)
	}
}

// triggerPlugins 插件失败只记录日志，不影响步骤和工作流状态
func (e *Engine) triggerPlugins(ctx context.Context, event plugin.TriggerEvent, data plugin.PluginData) {
	if e.pluginManager == nil {
		return
	}
	data.Event = event
	if err := e.pluginManager.Trigger(context.WithoutCancel(ctx), event, data); err != nil {
		e.log.Warn("⚠️ 插件执行失败", "event", event, "workflow_id", data.WorkflowID, "error", err)
	}
}

func (e *Engine) recordRun(ctx context.Context, snap *workflow.Snapshot, r *run) {
	if e.history == nil {
		return
	}
	record := &storage.RunRecord{
		ID:             r.id,
		WorkflowID:     snap.WorkflowID,
		WorkflowName:   snap.Name,
		Trigger:        r.trigger,
		Status:         string(snap.Status),
		StartedAt:      r.startedAt,
		FinishedAt:     time.Now(),
		StepsTotal:     snap.TotalSteps,
		StepsCompleted: snap.CompletedSteps(),
	}
	if failed, ok := snap.FailedStep(); ok {
		record.FailedStep = failed.StepID
		record.Error = failed.Error
	}
	if raw, err := json.Marshal(snap); err == nil {
		record.Snapshot = string(raw)
	} else {
		e.log.Warn("⚠️ 序列化快照失败", "workflow_id", snap.WorkflowID, "error", err)
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := e.history.Save(saveCtx, record); err != nil {
		e.log.Warn("⚠️ 写入执行历史失败", "workflow_id", snap.WorkflowID, "run_id", r.id, "error", err)
	}
}
