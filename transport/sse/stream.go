package sse

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Stream 单个连接上的 SSE 流.
//
// 创建时写入响应头并发送客户端重试提示；之后通过 Send 推送事件，
// 或用 Run 进入带心跳的事件循环. 非并发安全的方法已用锁保护，
// 多个 goroutine 可同时 Send.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	config  *Config

	mu     sync.Mutex
	closed bool
}

// NewStream 在响应上建立 SSE 流.
//
// 响应不支持 http.Flusher 时返回 ErrNotFlusher，此时尚未写入任何响应头，
// 调用方仍可返回普通错误响应.
func NewStream(w http.ResponseWriter, config *Config) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrNotFlusher
	}

	if config == nil {
		config = DefaultConfig()
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Nginx 禁用缓冲

	for k, v := range config.Headers {
		w.Header().Set(k, v)
	}

	s := &Stream{
		w:       w,
		flusher: flusher,
		config:  config,
	}

	// 发送重试间隔
	if config.RetryInterval > 0 {
		_, _ = fmt.Fprintf(w, "retry: %d\n\n", config.RetryInterval)
		flusher.Flush()
	}

	return s, nil
}

// Send 推送单个事件并立即刷出.
func (s *Stream) Send(event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}

	if _, err := s.w.Write(event.Bytes()); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Comment 发送 SSE 注释行（客户端忽略，用于保活）.
func (s *Stream) Comment(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}

	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Run 事件循环：推送 events 上的事件并定期发送心跳.
//
// ctx 取消或 events 关闭时正常返回并关闭流；写入错误时中断返回.
func (s *Stream) Run(ctx context.Context, events <-chan *Event) error {
	defer func() { _ = s.Close() }()

	heartbeat := time.NewTicker(s.config.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Send(event); err != nil {
				return err
			}

		case <-heartbeat.C:
			if err := s.Comment("heartbeat"); err != nil {
				return err
			}
		}
	}
}

// Close 标记流已关闭，之后的 Send/Comment 返回 ErrStreamClosed.
// 重复调用是安全的.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
