package feed

import "errors"

// 预定义错误.
var (
	// ErrEmptyBaseURL 未指定服务地址.
	ErrEmptyBaseURL = errors.New("feed: 未指定服务地址")

	// ErrAlreadyRunning 推送流已在运行.
	ErrAlreadyRunning = errors.New("feed: 推送流已在运行")

	// ErrFetchHistory 历史消息拉取失败（重试耗尽）.
	ErrFetchHistory = errors.New("feed: 历史消息拉取失败")

	// ErrBadStatus 服务端返回非预期状态码.
	ErrBadStatus = errors.New("feed: 非预期状态码")
)
