// Package events 提供工作流生命周期事件及基于Watermill的进程内事件总线
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	// 工作流事件
	EventWorkflowCreated   EventType = "workflow.created"
	EventWorkflowStarted   EventType = "workflow.started"
	EventWorkflowCompleted EventType = "workflow.completed"
	EventWorkflowFailed    EventType = "workflow.failed"
	EventWorkflowPaused    EventType = "workflow.paused"
	EventWorkflowResumed   EventType = "workflow.resumed"
	EventWorkflowDeleted   EventType = "workflow.deleted"

	// 调度事件
	EventScheduleRegistered EventType = "schedule.registered"
	EventScheduleRemoved    EventType = "schedule.removed"

	// 步骤事件
	EventStepStarted   EventType = "step.started"
	EventStepCompleted EventType = "step.completed"
	EventStepFailed    EventType = "step.failed"

	// 通知步骤发出的消息
	EventNotificationSent EventType = "notification.sent"
)

// Event 工作流事件
type Event struct {
	ID           string            `json:"id"`
	Type         EventType         `json:"type"`
	WorkflowID   string            `json:"workflow_id"`
	WorkflowName string            `json:"workflow_name,omitempty"`
	StepID       string            `json:"step_id,omitempty"`
	Status       string            `json:"status,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	Payload      map[string]any    `json:"payload,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewEvent 创建事件
func NewEvent(eventType EventType, workflowID, workflowName string) *Event {
	return &Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		WorkflowID:   workflowID,
		WorkflowName: workflowName,
		Timestamp:    time.Now(),
		Payload:      map[string]any{},
		Metadata:     map[string]string{},
	}
}

// WithStep 关联步骤
func (e *Event) WithStep(stepID string) *Event {
	e.StepID = stepID
	return e
}

// WithStatus 设置状态
func (e *Event) WithStatus(status string) *Event {
	e.Status = status
	return e
}

// WithPayload 设置负载字段
func (e *Event) WithPayload(key string, value any) *Event {
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	e.Payload[key] = value
	return e
}

// WithMetadata 添加元数据
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}
	e.Metadata[key] = value
	return e
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Discard 丢弃所有事件的Publisher
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, *Event) error { return nil }
