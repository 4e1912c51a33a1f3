package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic 所有工作流事件共用的主题
const Topic = "crm.workflow.events"

// ErrBusClosed 总线已关闭
var ErrBusClosed = errors.New("event bus closed")

// Bus 基于Watermill GoChannel的进程内事件总线
// 订阅者各自收到全部事件；没有订阅者时事件被丢弃
type Bus struct {
	pubsub *gochannel.GoChannel
	closed bool
	mu     sync.RWMutex
}

// BusOption 总线选项
type BusOption func(*busOptions)

type busOptions struct {
	bufferSize int64
	logger     watermill.LoggerAdapter
}

// WithBufferSize 每个订阅者的输出缓冲区大小
func WithBufferSize(size int64) BusOption {
	return func(o *busOptions) {
		o.bufferSize = size
	}
}

// WithWatermillLogger 设置Watermill日志适配器
func WithWatermillLogger(logger watermill.LoggerAdapter) BusOption {
	return func(o *busOptions) {
		o.logger = logger
	}
}

// NewBus 创建事件总线
func NewBus(opts ...BusOption) *Bus {
	o := &busOptions{
		bufferSize: 256,
		logger:     watermill.NopLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            o.bufferSize,
				Persistent:                     false,
				BlockPublishUntilSubscriberAck: false,
			},
			o.logger,
		),
	}
}

// Publish 发布事件（实现Publisher接口）
func (b *Bus) Publish(_ context.Context, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("workflow_id", event.WorkflowID)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339Nano))

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Subscribe 订阅所有事件，ctx取消后返回的channel被关闭
func (b *Bus) Subscribe(ctx context.Context) (<-chan *Event, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}

	messages, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("订阅事件失败: %w", err)
	}

	out := make(chan *Event, 64)
	go func() {
		defer close(out)
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close 关闭总线，所有订阅channel随之关闭
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

var _ Publisher = (*Bus)(nil)
