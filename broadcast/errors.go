package broadcast

import "errors"

// 预定义错误.
var (
	// ErrNilFactory 消费入口工厂为空.
	ErrNilFactory = errors.New("broadcast: 消费入口工厂为空")

	// ErrEmptyTopic 未指定主题.
	ErrEmptyTopic = errors.New("broadcast: 未指定主题")

	// ErrNilListener 监听器为空.
	ErrNilListener = errors.New("broadcast: 监听器为空")

	// ErrStartConsumer 消费会话启动失败.
	ErrStartConsumer = errors.New("broadcast: 消费会话启动失败")
)
