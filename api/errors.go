package api

import "errors"

// 预定义错误.
var (
	// ErrEmptyTopic 未指定主题.
	ErrEmptyTopic = errors.New("api: 未指定主题")

	// ErrHistoryUnavailable 历史消息读取入口未配置.
	ErrHistoryUnavailable = errors.New("api: 历史消息读取入口未配置")

	// ErrStreamUnavailable 实时订阅入口未配置.
	ErrStreamUnavailable = errors.New("api: 实时订阅入口未配置")

	// ErrPublishUnavailable 消息发布入口未配置.
	ErrPublishUnavailable = errors.New("api: 消息发布入口未配置")

	// ErrEmptyContent 消息内容为空.
	ErrEmptyContent = errors.New("api: 消息内容为空")
)
