package semaphore

import "errors"

// 预定义错误.
var (
	// ErrNoPermit 无法获取许可.
	ErrNoPermit = errors.New("semaphore: 无法获取许可")

	// ErrClosed 信号量已关闭.
	ErrClosed = errors.New("semaphore: 信号量已关闭")
)
