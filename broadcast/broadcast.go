// Package broadcast 提供进程内消息扇出.
//
// 单个消费会话从管道读取记录，同步分发给所有已注册的监听器.
// 首次订阅时惰性启动消费会话，之后的订阅复用同一会话.
//
// 示例:
//
//	b, err := broadcast.New(
//	    func() (broadcast.Consumer, error) { return client.Consumer("dashboard-live") },
//	    "bess-notifications",
//	    broadcast.WithLogger(log),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
//	cancel, err := b.Subscribe(func(rec broadcast.Record) {
//	    fmt.Println(rec.Content)
//	})
//	defer cancel()
package broadcast

import (
	"context"

	"github.com/voltgrid/voltstream/messaging"
)

// Record 扇出给监听器的记录.
//
// 解码后的负载加上来源坐标（主题、分区、偏移量）.
type Record struct {
	messaging.Payload

	// Topic 来源主题.
	Topic string
	// Partition 来源分区.
	Partition int32
	// Offset 分区内偏移量.
	Offset int64
}

// Listener 记录监听器.
//
// 在消费会话的分发循环中同步调用，不得长时间阻塞.
type Listener func(Record)

// Consumer 消费入口，*messaging.KafkaConsumer 实现该接口.
type Consumer interface {
	Consume(ctx context.Context, topics []string, handler messaging.MessageHandler) error
	Close() error
}

// ConsumerFactory 创建消费入口.
//
// 每次会话启动时调用一次（Stop 后再次订阅会重新创建）.
type ConsumerFactory func() (Consumer, error)
