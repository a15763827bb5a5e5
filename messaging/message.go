package messaging

import "time"

// Message 消息结构.
//
// 用于生产者发送和消费者接收消息.
// Value 为 []byte 类型，负载编解码见 Payload.
type Message struct {
	// Topic 消息主题，必填.
	Topic string

	// Key 消息键，用于分区路由.
	// 相同 Key 的消息会路由到同一分区，保证顺序性.
	Key []byte

	// Value 消息内容.
	Value []byte

	// Partition 分区号.
	// 发送后由服务端返回填充.
	Partition int32

	// Offset 消息偏移量，分区内严格递增.
	// 发送后由服务端返回填充.
	Offset int64

	// Timestamp 消息时间戳.
	Timestamp time.Time
}
