package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/voltgrid/voltstream/logger"
)

// ProducerOption 生产者配置选项.
type ProducerOption func(*producerOptions)

type producerOptions struct {
	logger logger.Logger
}

// WithProducerLogger 设置日志记录器.
func WithProducerLogger(log logger.Logger) ProducerOption {
	return func(o *producerOptions) {
		o.logger = log
	}
}

// KafkaProducer Kafka 生产者.
//
// 使用同步发送模式，保证消息可靠投递.
// 内置最佳实践配置：
//   - Idempotent: true (幂等性，保证消息不重复)
//   - RequiredAcks: WaitForAll (等待所有副本确认)
//   - Compression: Snappy
type KafkaProducer struct {
	producer sarama.SyncProducer
	closed   bool
	mu       sync.RWMutex
	logger   logger.Logger
	metrics  *pipelineMetrics
}

// NewKafkaProducer 创建 Kafka 生产者.
//
// 返回创建的生产者实例，使用完毕后需调用 Close 关闭.
func NewKafkaProducer(brokers []string, opts ...ProducerOption) (*KafkaProducer, error) {
	options := &producerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	config := sarama.NewConfig()
	config.Version = sarama.V3_8_0_0
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.Join(ErrCreateProducer, err)
	}

	p := &KafkaProducer{
		producer: producer,
		logger:   options.logger,
	}

	if p.logger != nil {
		p.logger.Debugf("[Messaging] Kafka生产者启动: brokers=%v", brokers)
	}

	return p, nil
}

// SendMessage 发送消息.
//
// 同步发送消息并等待确认，返回包含分区和偏移量信息的消息.
func (p *KafkaProducer) SendMessage(ctx context.Context, msg *Message) (*Message, error) {
	startTime := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if msg == nil {
		return nil, ErrNilMessage
	}
	if msg.Topic == "" {
		return nil, ErrEmptyTopic
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrProducerClosed
	}
	p.mu.RUnlock()

	pm := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Value: sarama.ByteEncoder(msg.Value),
	}
	if len(msg.Key) > 0 {
		pm.Key = sarama.ByteEncoder(msg.Key)
	}
	if !msg.Timestamp.IsZero() {
		pm.Timestamp = msg.Timestamp
	}

	partition, offset, err := p.producer.SendMessage(pm)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordSendError(msg.Topic)
		}
		if p.logger != nil {
			p.logger.With(
				logger.String("topic", msg.Topic),
				logger.Err(err),
			).Error("[Messaging] 消息发送失败")
		}
		return nil, errors.Join(ErrSendMessage, err)
	}

	if p.metrics != nil {
		p.metrics.RecordSend(msg.Topic, time.Since(startTime))
	}

	result := *msg
	result.Partition = partition
	result.Offset = offset
	return &result, nil
}

// Close 关闭生产者.
//
// 重复调用是安全的.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
