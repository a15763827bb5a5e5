package messaging

import (
	"time"

	json "github.com/goccy/go-json"
)

// Payload 管道负载.
//
// 生产端写入的负载有两种形态：结构化 JSON 对象
// {"content": "...", "timestamp": "..."} 或任意原始文本.
// 两种形态都必须被接受（解码规则见 DecodePayload）.
type Payload struct {
	// Content 文本内容.
	Content string `json:"content"`

	// Timestamp ISO-8601 时间戳.
	Timestamp string `json:"timestamp"`
}

// DecodePayload 解码消息负载.
//
// 负载为合法 JSON 对象时取其 content/timestamp 字段；
// 否则整个负载作为 content，timestamp 取 receivedAt.
// 字段缺失时同样回退到 receivedAt.
// 解码永不失败：格式错误降级为原始文本投递，不中断管道.
func DecodePayload(value []byte, receivedAt time.Time) Payload {
	var p Payload
	if err := json.Unmarshal(value, &p); err != nil || p.Content == "" {
		return Payload{
			Content:   string(value),
			Timestamp: receivedAt.UTC().Format(time.RFC3339),
		}
	}

	if p.Timestamp == "" {
		p.Timestamp = receivedAt.UTC().Format(time.RFC3339)
	}
	return p
}

// Encode 将负载编码为 JSON.
func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}
