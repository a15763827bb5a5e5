package semaphore

import (
	"context"
	"sync"
)

// Local 本地信号量.
//
// 基于 channel 实现，适用于单机并发控制.
type Local struct {
	size   int64
	sem    chan struct{}
	closed bool
	mu     sync.RWMutex
}

// NewLocal 创建本地信号量.
//
// size: 最大并发数
func NewLocal(size int64) *Local {
	if size <= 0 {
		panic("semaphore: 信号量大小必须为正数")
	}

	return &Local{
		size: size,
		sem:  make(chan struct{}, size),
	}
}

// Acquire 获取一个许可.
func (s *Local) Acquire(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.mu.RUnlock()

	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire 尝试获取一个许可.
func (s *Local) TryAcquire(ctx context.Context) bool {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false
	}
	s.mu.RUnlock()

	select {
	case s.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release 释放一个许可.
func (s *Local) Release(ctx context.Context) error {
	select {
	case <-s.sem:
		return nil
	default:
		// 没有许可可释放，忽略（容错）
		return nil
	}
}

// Available 返回当前可用的许可数量.
func (s *Local) Available(ctx context.Context) (int64, error) {
	return s.size - int64(len(s.sem)), nil
}

// Size 返回信号量的总大小.
func (s *Local) Size() int64 {
	return s.size
}

// Close 关闭信号量.
func (s *Local) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.sem)
	}
	return nil
}
