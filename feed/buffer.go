package feed

import (
	"sort"
	"sync"
	"time"
)

// Buffer 消息条目缓冲区.
//
// 维护两个不变量：条目 ID 唯一；每次变更后按时间戳降序排列
// （最新的在最前）. 所有方法并发安全.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int // ID -> entries 下标
}

// NewBuffer 创建缓冲区.
func NewBuffer() *Buffer {
	return &Buffer{
		index: make(map[string]int),
	}
}

// Insert 插入条目.
//
// 幂等：相同 ID 的条目只保留第一次插入的内容，返回 false.
func (b *Buffer) Insert(entry Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.index[entry.ID]; exists {
		return false
	}

	b.entries = append(b.entries, entry)
	b.resort()
	return true
}

// MarkRead 设置条目的已读标记.
//
// 条目不存在时返回 false.
func (b *Buffer) MarkRead(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[id]
	if !ok {
		return false
	}
	b.entries[i].Read = true
	return true
}

// Remove 删除条目.
//
// 条目不存在时返回 false.
func (b *Buffer) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[id]
	if !ok {
		return false
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	b.resort()
	return true
}

// Snapshot 返回当前条目的副本（时间戳降序）.
func (b *Buffer) Snapshot() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len 返回条目数量.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Unread 返回未读条目数量.
func (b *Buffer) Unread() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, e := range b.entries {
		if !e.Read {
			n++
		}
	}
	return n
}

// resort 按时间戳降序重排并重建索引. 调用方必须持有写锁.
func (b *Buffer) resort() {
	sort.SliceStable(b.entries, func(i, j int) bool {
		return laterTimestamp(b.entries[i].Timestamp, b.entries[j].Timestamp)
	})
	for i, e := range b.entries {
		b.index[e.ID] = i
	}
	// 删除后索引可能残留过期项
	if len(b.index) != len(b.entries) {
		b.index = make(map[string]int, len(b.entries))
		for i, e := range b.entries {
			b.index[e.ID] = i
		}
	}
}

// laterTimestamp 报告 a 是否晚于 b.
//
// 两者都是合法 RFC3339 时按时间比较，否则退化为字符串比较
// （同格式的 ISO-8601 字符串字典序与时间序一致）.
func laterTimestamp(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA == nil && errB == nil {
		return ta.After(tb)
	}
	return a > b
}
