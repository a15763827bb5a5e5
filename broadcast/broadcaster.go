package broadcast

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltgrid/voltstream/logger"
	"github.com/voltgrid/voltstream/messaging"
	"github.com/voltgrid/voltstream/metrics"
)

// Option 广播器配置选项.
type Option func(*Broadcaster)

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = log
	}
}

// WithMetrics 启用指标监控.
func WithMetrics(collector *metrics.PrometheusCollector) Option {
	return func(b *Broadcaster) {
		b.collector = collector
	}
}

// Broadcaster 消息广播器.
//
// 持有监听器注册表和至多一个活跃的消费会话.
// 会话在首次订阅时启动，重复订阅不会产生第二个会话；
// Stop 关闭会话并复位，之后的订阅会重新启动.
type Broadcaster struct {
	factory   ConsumerFactory
	topic     string
	logger    logger.Logger
	collector *metrics.PrometheusCollector

	mu          sync.Mutex
	listeners   map[string]Listener
	consumer    Consumer
	running     bool
	lastOffsets map[int32]int64 // 会话内按分区的重复投递防护
}

// New 创建广播器.
func New(factory ConsumerFactory, topic string, opts ...Option) (*Broadcaster, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	b := &Broadcaster{
		factory:   factory,
		topic:     topic,
		listeners: make(map[string]Listener),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Subscribe 注册监听器.
//
// 首次订阅时启动消费会话；会话启动失败时撤销本次注册并返回错误.
// 返回的取消函数用于注销监听器，重复调用是安全的.
func (b *Broadcaster) Subscribe(listener Listener) (func(), error) {
	if listener == nil {
		return nil, ErrNilListener
	}

	b.mu.Lock()
	id := uuid.New().String()
	b.listeners[id] = listener

	if !b.running {
		if err := b.start(); err != nil {
			delete(b.listeners, id)
			b.mu.Unlock()
			return nil, errors.Join(ErrStartConsumer, err)
		}
	}
	count := len(b.listeners)
	b.mu.Unlock()

	b.recordListeners(count)
	if b.logger != nil {
		b.logger.With(
			logger.String("listenerID", id),
			logger.Int("listeners", count),
		).Debug("[Broadcast] 监听器已注册")
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			remaining := len(b.listeners)
			b.mu.Unlock()

			b.recordListeners(remaining)
			if b.logger != nil {
				b.logger.With(
					logger.String("listenerID", id),
					logger.Int("listeners", remaining),
				).Debug("[Broadcast] 监听器已注销")
			}
		})
	}, nil
}

// start 启动消费会话. 调用方必须持有 b.mu.
func (b *Broadcaster) start() error {
	consumer, err := b.factory()
	if err != nil {
		return err
	}

	if err := consumer.Consume(context.Background(), []string{b.topic}, b.dispatch); err != nil {
		_ = consumer.Close()
		return err
	}

	b.consumer = consumer
	b.running = true
	b.lastOffsets = make(map[int32]int64)

	if b.logger != nil {
		b.logger.With(logger.String("topic", b.topic)).Debug("[Broadcast] 消费会话已启动")
	}
	return nil
}

// Stop 关闭消费会话.
//
// 监听器注册表保持不变；之后的 Subscribe 会启动新会话.
// 没有活跃会话时直接返回.
func (b *Broadcaster) Stop() error {
	b.mu.Lock()
	consumer := b.consumer
	b.consumer = nil
	b.running = false
	b.lastOffsets = nil
	b.mu.Unlock()

	if consumer == nil {
		return nil
	}

	if b.logger != nil {
		b.logger.Debug("[Broadcast] 消费会话已停止")
	}
	return consumer.Close()
}

// Count 返回当前监听器数量.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Running 报告当前是否存在活跃消费会话.
func (b *Broadcaster) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// dispatch 解码单条消息并同步分发给所有监听器.
//
// 作为消费会话的处理器逐条调用. 重复投递（分区内偏移量不大于
// 已见最大值）会被丢弃，保证每个监听器对同一记录至多收到一次.
func (b *Broadcaster) dispatch(msg *messaging.Message) error {
	b.mu.Lock()
	if last, seen := b.lastOffsets[msg.Partition]; seen && msg.Offset <= last {
		b.mu.Unlock()
		if b.collector != nil {
			b.collector.Counter("pipeline_broadcast_duplicates_total", map[string]string{"topic": msg.Topic})
		}
		if b.logger != nil {
			b.logger.With(
				logger.Int32("partition", msg.Partition),
				logger.Int64("offset", msg.Offset),
			).Warn("[Broadcast] 丢弃重复投递")
		}
		return nil
	}
	if b.lastOffsets != nil {
		b.lastOffsets[msg.Partition] = msg.Offset
	}

	targets := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		targets = append(targets, l)
	}
	b.mu.Unlock()

	receivedAt := msg.Timestamp
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	rec := Record{
		Payload:   messaging.DecodePayload(msg.Value, receivedAt),
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}

	for _, l := range targets {
		l(rec)
	}

	if b.collector != nil {
		b.collector.Counter("pipeline_broadcast_records_total", map[string]string{"topic": msg.Topic})
	}
	return nil
}

func (b *Broadcaster) recordListeners(count int) {
	if b.collector != nil {
		b.collector.Gauge("pipeline_broadcast_listeners", float64(count), nil)
	}
}
