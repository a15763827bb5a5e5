package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"github.com/voltgrid/voltstream/logger"
)

// offsetLookup 分区与偏移量查询，sarama.Client 实现该接口.
type offsetLookup interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, time int64) (int64, error)
}

// partitionSource 分区消费入口，sarama.Consumer 实现该接口.
type partitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (sarama.PartitionConsumer, error)
}

// FetchHistory 历史回放：一次性读取主题的全部保留消息.
//
// 对每个分区，从最早保留位点读到调用时刻的高水位减一，
// 返回解码后的有限负载列表并结束读取（消费句柄不会悬挂）.
// 高水位为 0 的空分区立即完成，不会阻塞.
//
// 语义为全有或全无：任何连接或读取错误都会丢弃部分结果并整体报错.
// 回放使用独立的分区消费者，不触碰任何消费者组的位点，
// 因此与实时消费共用 Client 是安全的；
// 消费句柄在所有退出路径上都会被关闭.
func (c *Client) FetchHistory(ctx context.Context, topic string) ([]Payload, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	saramaClient := c.saramaClient
	c.mu.Unlock()

	startTime := time.Now()

	consumer, err := sarama.NewConsumerFromClient(saramaClient)
	if err != nil {
		return nil, errors.Join(ErrCreateConsumer, err)
	}
	defer consumer.Close()

	payloads, err := drainTopic(ctx, saramaClient, consumer, topic)
	if err != nil {
		if c.logger != nil {
			c.logger.With(
				logger.String("topic", topic),
				logger.Err(err),
			).Error("[Messaging] 历史回放失败")
		}
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordHistoryFetch(topic, len(payloads), time.Since(startTime))
	}
	if c.logger != nil {
		c.logger.With(
			logger.String("topic", topic),
			logger.Int("count", len(payloads)),
			logger.Duration("elapsed", time.Since(startTime)),
		).Debug("[Messaging] 历史回放完成")
	}

	return payloads, nil
}

// drainTopic 逐分区读取到调用时刻的高水位.
func drainTopic(ctx context.Context, offsets offsetLookup, source partitionSource, topic string) ([]Payload, error) {
	partitions, err := offsets.Partitions(topic)
	if err != nil {
		return nil, errors.Join(ErrFetchOffsets, err)
	}

	payloads := make([]Payload, 0)

	for _, partition := range partitions {
		oldest, err := offsets.GetOffset(topic, partition, sarama.OffsetOldest)
		if err != nil {
			return nil, errors.Join(ErrFetchOffsets, err)
		}

		// GetOffset(OffsetNewest) 返回的是高水位：下一条将被写入的偏移量
		highWater, err := offsets.GetOffset(topic, partition, sarama.OffsetNewest)
		if err != nil {
			return nil, errors.Join(ErrFetchOffsets, err)
		}

		// 空分区：无保留消息，立即完成
		if highWater <= oldest {
			continue
		}

		partPayloads, err := drainPartition(ctx, source, topic, partition, highWater-1)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, partPayloads...)
	}

	return payloads, nil
}

// drainPartition 从最早位点读取单个分区直到 endOffset（含）.
func drainPartition(ctx context.Context, source partitionSource, topic string, partition int32, endOffset int64) ([]Payload, error) {
	pc, err := source.ConsumePartition(topic, partition, sarama.OffsetOldest)
	if err != nil {
		return nil, errors.Join(ErrCreateConsumer, err)
	}
	defer pc.Close()

	var payloads []Payload
	for {
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrHistoryRead, ctx.Err())

		case err := <-pc.Errors():
			return nil, errors.Join(ErrHistoryRead, err)

		case msg, ok := <-pc.Messages():
			if !ok {
				return nil, ErrHistoryRead
			}
			payloads = append(payloads, DecodePayload(msg.Value, msg.Timestamp))
			if msg.Offset >= endOffset {
				return payloads, nil
			}
		}
	}
}
