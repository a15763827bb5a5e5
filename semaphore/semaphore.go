// Package semaphore 提供信号量并发控制.
//
// 信号量用于限制对共享资源的并发访问数量，
// 例如限制同时打开的推送流数量。
//
// 示例:
//
//	sem := semaphore.NewLocal(10) // 最多10个并发
//	if err := sem.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer sem.Release(ctx)
package semaphore

import (
	"context"
)

// Semaphore 信号量接口.
type Semaphore interface {
	// Acquire 获取一个许可.
	// 如果没有可用许可，会阻塞等待直到获取成功或 context 取消.
	Acquire(ctx context.Context) error

	// TryAcquire 尝试获取一个许可.
	// 如果没有可用许可，立即返回 false.
	TryAcquire(ctx context.Context) bool

	// Release 释放一个许可.
	Release(ctx context.Context) error

	// Available 返回当前可用的许可数量.
	Available(ctx context.Context) (int64, error)

	// Size 返回信号量的总大小.
	Size() int64
}
