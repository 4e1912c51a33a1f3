package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventStepCompleted, "wf-1", "Lead").
		WithStep("step_2").
		WithStatus("completed").
		WithPayload("result", "ok").
		WithMetadata("trigger", "manual")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventStepCompleted, event.Type)
	assert.Equal(t, "wf-1", event.WorkflowID)
	assert.Equal(t, "step_2", event.StepID)
	assert.Equal(t, "ok", event.Payload["result"])
	assert.Equal(t, "manual", event.Metadata["trigger"])
	assert.NotZero(t, event.Timestamp)
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	sent := NewEvent(EventWorkflowStarted, "wf-1", "Lead")
	require.NoError(t, bus.Publish(ctx, sent))

	select {
	case got := <-ch:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, EventWorkflowStarted, got.Type)
		assert.Equal(t, "wf-1", got.WorkflowID)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到事件")
	}
}

func TestBus_SubscriptionEndsWithContext(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("订阅channel未关闭")
	}
}

func TestBus_Closed(t *testing.T) {
	bus := NewBus()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), NewEvent(EventWorkflowCreated, "wf", "x"))
	assert.ErrorIs(t, err, ErrBusClosed)

	_, err = bus.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Publish(context.Background(), NewEvent(EventWorkflowCreated, "wf", "x")))
}
