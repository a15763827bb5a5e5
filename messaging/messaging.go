// Package messaging 提供 Kafka 消息管道客户端.
//
// 管道分为三条路径，共享同一个 Client 连接:
//
//	// 历史回放：从最早保留位点读到调用时的高水位
//	msgs, _ := client.FetchHistory(ctx, "bess-notifications")
//
//	// 实时消费：消费者组订阅，处理器逐条调用
//	consumer, _ := client.Consumer("bess-dashboard")
//	consumer.Consume(ctx, []string{"bess-notifications"}, func(msg *messaging.Message) error {
//	    fmt.Printf("收到消息: %s\n", msg.Value)
//	    return nil
//	})
//
//	// 生产：面板"发送消息"调用
//	producer, _ := client.Producer()
//	producer.SendMessage(ctx, &messaging.Message{Topic: "bess-notifications", Value: data})
package messaging

import "context"

// MessageHandler 消息处理函数.
type MessageHandler func(*Message) error

// Producer 生产者接口.
type Producer interface {
	// SendMessage 发送单条消息，返回包含分区和偏移量的消息.
	SendMessage(ctx context.Context, msg *Message) (*Message, error)
	// Close 关闭生产者.
	Close() error
}

// Consumer 消费者接口.
type Consumer interface {
	// Consume 开始消费消息，handler 处理每条消息.
	Consume(ctx context.Context, topics []string, handler MessageHandler) error
	// Close 关闭消费者.
	Close() error
}
