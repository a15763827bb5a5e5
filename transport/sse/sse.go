// Package sse 提供 Server-Sent Events (SSE) 服务端支持.
//
// 以单个连接为单位：每个 HTTP 请求持有一个 Stream，
// 扇出逻辑由上层负责（见 broadcast 包）.
//
// 示例:
//
//	stream, err := sse.NewStream(w, nil)
//	if err != nil {
//	    http.Error(w, err.Error(), http.StatusInternalServerError)
//	    return
//	}
//	_ = stream.Run(r.Context(), events)
package sse

import (
	"errors"
	"fmt"
	"time"
)

// 预定义错误.
var (
	ErrStreamClosed = errors.New("sse: stream closed")
	ErrNotFlusher   = errors.New("sse: response writer does not support flushing")
)

// Event SSE 事件.
type Event struct {
	// ID 事件 ID
	ID string
	// Event 事件类型
	Event string
	// Data 事件数据
	Data []byte
	// Retry 重试间隔（毫秒）
	Retry int
}

// Bytes 将事件序列化为 SSE 格式.
func (e *Event) Bytes() []byte {
	var buf []byte

	if e.ID != "" {
		buf = append(buf, fmt.Sprintf("id: %s\n", e.ID)...)
	}
	if e.Event != "" {
		buf = append(buf, fmt.Sprintf("event: %s\n", e.Event)...)
	}
	if e.Retry > 0 {
		buf = append(buf, fmt.Sprintf("retry: %d\n", e.Retry)...)
	}
	if len(e.Data) > 0 {
		buf = append(buf, fmt.Sprintf("data: %s\n", e.Data)...)
	}
	buf = append(buf, '\n')

	return buf
}

// Config SSE 配置.
type Config struct {
	// HeartbeatInterval 心跳间隔
	HeartbeatInterval time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	// RetryInterval 客户端重试间隔（毫秒）
	RetryInterval int `json:"retry_interval" yaml:"retry_interval" mapstructure:"retry_interval"`
	// Headers 自定义响应头
	Headers map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`
}

// DefaultConfig 返回默认配置.
func DefaultConfig() *Config {
	return &Config{
		HeartbeatInterval: 30 * time.Second,
		RetryInterval:     3000,
		Headers:           make(map[string]string),
	}
}
