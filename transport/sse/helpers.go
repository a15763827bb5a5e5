package sse

import (
	json "github.com/goccy/go-json"
)

// NewEvent 创建新事件.
func NewEvent(eventType string, data []byte) *Event {
	return &Event{
		Event: eventType,
		Data:  data,
	}
}

// NewJSONEvent 创建 JSON 数据事件.
func NewJSONEvent(eventType string, data any) (*Event, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		Event: eventType,
		Data:  bytes,
	}, nil
}

// NewMessageEvent 创建简单消息事件.
func NewMessageEvent(message string) *Event {
	return &Event{
		Event: "message",
		Data:  []byte(message),
	}
}
