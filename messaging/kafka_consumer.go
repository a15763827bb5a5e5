package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/voltgrid/voltstream/logger"
)

// ConsumerOption 消费者配置选项.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	logger            logger.Logger
	reconnectInterval time.Duration // 消费循环重连间隔
	initialOffset     int64         // 初始偏移量策略
}

// WithConsumerLogger 设置日志记录器.
func WithConsumerLogger(log logger.Logger) ConsumerOption {
	return func(o *consumerOptions) {
		o.logger = log
	}
}

// WithReconnectInterval 设置消费循环重连间隔.
//
// 当消费循环发生错误时，等待指定时间后重试.
// 默认为 1 秒.
func WithReconnectInterval(interval time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.reconnectInterval = interval
	}
}

// WithInitialOffsetOldest 从最早保留位点开始消费.
//
// 默认从最新消息开始（历史数据由 Client.FetchHistory 单独回放）.
func WithInitialOffsetOldest() ConsumerOption {
	return func(o *consumerOptions) {
		o.initialOffset = sarama.OffsetOldest
	}
}

// KafkaConsumer Kafka 消费者.
//
// 使用消费者组模式，支持自动重平衡.
// 内置最佳实践配置：
//   - AutoCommit: 禁用 (手动提交，保证消息处理完成后再确认)
//   - Offsets.Initial: Newest (从最新消息开始消费)
//
// 同一会话内处理器逐条串行调用，不存在并行处理.
type KafkaConsumer struct {
	consumerGroup     sarama.ConsumerGroup
	groupID           string
	handler           MessageHandler
	topics            []string
	cancel            context.CancelFunc
	wg                sync.WaitGroup
	logger            logger.Logger
	reconnectInterval time.Duration
	metrics           *pipelineMetrics

	mu      sync.Mutex
	running bool
	// onClose 关闭时回调一次，Client 用它注销已关闭的消费者.
	onClose func()
}

// NewKafkaConsumer 创建 Kafka 消费者.
//
// 参数:
//   - brokers: Kafka 服务器地址列表
//   - groupID: 消费者组ID，同组消费者共享消息
//   - opts: 可选配置项
//
// 返回创建的消费者实例，使用完毕后需调用 Close 关闭.
func NewKafkaConsumer(brokers []string, groupID string, opts ...ConsumerOption) (*KafkaConsumer, error) {
	if groupID == "" {
		return nil, ErrEmptyGroupID
	}

	options := &consumerOptions{
		initialOffset: sarama.OffsetNewest,
	}
	for _, opt := range opts {
		opt(options)
	}

	config := sarama.NewConfig()
	config.Version = sarama.V3_8_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = options.initialOffset
	config.Consumer.Offsets.AutoCommit.Enable = false

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, errors.Join(ErrCreateConsumer, err)
	}

	reconnectInterval := options.reconnectInterval
	if reconnectInterval <= 0 {
		reconnectInterval = time.Second
	}

	c := &KafkaConsumer{
		consumerGroup:     consumerGroup,
		groupID:           groupID,
		logger:            options.logger,
		reconnectInterval: reconnectInterval,
	}

	if c.logger != nil {
		c.logger.With(
			logger.Any("brokers", brokers),
			logger.String("groupID", groupID),
		).Debug("[Messaging] Kafka消费者启动")
	}

	return c, nil
}

// Consume 开始消费消息.
//
// 该方法会启动后台 goroutine 消费消息，调用后立即返回.
// 消息处理完成后自动标记偏移量.
//
// 同一消费者实例只允许一个活跃消费循环：重复调用返回 ErrAlreadyConsuming，
// 不会产生重复订阅.
//
// 参数:
//   - ctx: 上下文，取消时会停止消费
//   - topics: 要消费的主题列表
//   - handler: 消息处理函数
func (c *KafkaConsumer) Consume(ctx context.Context, topics []string, handler MessageHandler) error {
	if len(topics) == 0 {
		return ErrNoTopics
	}
	if handler == nil {
		return ErrNilHandler
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyConsuming
	}
	c.running = true
	c.topics = topics
	c.handler = handler
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	// 消费循环
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.recoverPanic("消费循环")
		for {
			if err := c.consumerGroup.Consume(ctx, c.topics, c); err != nil {
				if ctx.Err() != nil {
					return
				}
				if c.logger != nil {
					c.logger.With(logger.Err(err)).Error("[Messaging] 消费失败")
				}
				time.Sleep(c.reconnectInterval)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	// 错误监听
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.recoverPanic("错误监听")
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				if c.metrics != nil {
					for _, topic := range c.topics {
						c.metrics.RecordConsumeError(topic, c.groupID)
					}
				}
				if c.logger != nil {
					c.logger.With(logger.Err(err)).Warn("[Messaging] 消费者错误")
				}
			}
		}
	}()

	return nil
}

// Close 关闭消费者.
//
// 停止消费并等待所有 goroutine 退出，释放资源.
// 重复调用是安全的.
func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	onClose := c.onClose
	c.onClose = nil
	c.running = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	if onClose != nil {
		onClose()
	}

	if c.consumerGroup != nil {
		return c.consumerGroup.Close()
	}
	return nil
}

// Setup 实现 sarama.ConsumerGroupHandler 接口.
// 在消费开始前调用.
func (c *KafkaConsumer) Setup(session sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup 实现 sarama.ConsumerGroupHandler 接口.
// 在消费结束后调用.
func (c *KafkaConsumer) Cleanup(session sarama.ConsumerGroupSession) error {
	session.Commit()
	return nil
}

// ConsumeClaim 实现 sarama.ConsumerGroupHandler 接口.
// 处理分区消息.
func (c *KafkaConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			c.processMessage(session, msg)

		case <-session.Context().Done():
			return nil
		}
	}
}

// processMessage 处理单条消息.
func (c *KafkaConsumer) processMessage(session sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) {
	startTime := time.Now()

	message := &Message{
		Topic:     msg.Topic,
		Key:       msg.Key,
		Value:     msg.Value,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Timestamp,
	}

	if err := c.handler(message); err != nil {
		// 处理器错误不中断消费循环
		if c.metrics != nil {
			c.metrics.RecordConsumeError(msg.Topic, c.groupID)
		}
		if c.logger != nil {
			c.logger.With(
				logger.String("topic", msg.Topic),
				logger.Int64("offset", msg.Offset),
				logger.Err(err),
			).Error("[Messaging] 消息处理失败")
		}
	} else if c.metrics != nil {
		c.metrics.RecordConsume(msg.Topic, c.groupID, time.Since(startTime))
	}

	// 无论成功或失败，都标记消息已处理
	session.MarkMessage(msg, "")
}

// recoverPanic 恢复 goroutine panic 并记录日志.
func (c *KafkaConsumer) recoverPanic(goroutineName string) {
	if r := recover(); r != nil {
		if c.logger != nil {
			c.logger.With(
				logger.String("goroutine", goroutineName),
				logger.Any("panic", r),
			).Error("[Messaging] goroutine panic")
		}
	}
}
