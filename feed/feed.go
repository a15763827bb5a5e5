// Package feed 提供消息管道的 Go 客户端.
//
// 两条数据路径合流到同一个本地缓冲区：
// 一次性历史拉取（Load）和 SSE 实时推送（Start）.
// 两条路径用相同的合成 ID 去重，缓冲区始终按时间戳降序.
//
// 示例:
//
//	f, err := feed.New("http://localhost:8080",
//	    feed.WithLogger(log),
//	    feed.WithOnMessage(func(e feed.Entry) { render(e) }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := f.Load(ctx); err != nil {
//	    log.Errorf("历史拉取失败: %v", err)
//	}
//	_ = f.Start(ctx)
//	defer f.Stop()
package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/voltgrid/voltstream/logger"
)

// State 推送流连接状态.
type State int32

const (
	// StateDisconnected 未连接.
	StateDisconnected State = iota
	// StateConnecting 连接建立中.
	StateConnecting
	// StateStreaming 正在接收推送.
	StateStreaming
)

// String 实现 fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// Feed 消息管道客户端.
type Feed struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
	buffer  *Buffer

	fetchAttempts  int
	fetchDelay     time.Duration
	reconnectDelay time.Duration
	onMessage      func(Entry)

	state  atomic.Int32
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option 客户端配置选项.
type Option func(*Feed)

// WithHTTPClient 设置 HTTP 客户端.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Feed) {
		f.client = client
	}
}

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) Option {
	return func(f *Feed) {
		f.logger = log
	}
}

// WithFetchRetry 设置历史拉取的尝试次数和固定重试间隔.
//
// 默认 3 次、间隔 2 秒. 重试耗尽后 Load 返回最后一次的错误.
func WithFetchRetry(attempts int, delay time.Duration) Option {
	return func(f *Feed) {
		f.fetchAttempts = attempts
		f.fetchDelay = delay
	}
}

// WithReconnectDelay 设置推送流断开后的固定重连间隔.
//
// 默认 5 秒. 推送流会无限重连直到 Stop.
func WithReconnectDelay(delay time.Duration) Option {
	return func(f *Feed) {
		f.reconnectDelay = delay
	}
}

// WithOnMessage 设置新消息回调.
//
// 仅在条目首次进入缓冲区时调用（重复投递不触发）.
func WithOnMessage(fn func(Entry)) Option {
	return func(f *Feed) {
		f.onMessage = fn
	}
}

// New 创建客户端.
func New(baseURL string, opts ...Option) (*Feed, error) {
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	f := &Feed{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         http.DefaultClient,
		buffer:         NewBuffer(),
		fetchAttempts:  3,
		fetchDelay:     2 * time.Second,
		reconnectDelay: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// State 返回当前连接状态.
func (f *Feed) State() State {
	return State(f.state.Load())
}

// Entries 返回缓冲区条目的副本（时间戳降序）.
func (f *Feed) Entries() []Entry {
	return f.buffer.Snapshot()
}

// MarkRead 设置条目的本地已读标记.
func (f *Feed) MarkRead(id string) bool {
	return f.buffer.MarkRead(id)
}

// Remove 从缓冲区删除条目.
func (f *Feed) Remove(id string) bool {
	return f.buffer.Remove(id)
}

// Load 一次性拉取历史消息并合入缓冲区.
//
// 失败时按固定间隔重试，重试耗尽后返回最后一次的错误.
// 成功时已存在的条目被静默跳过（与实时路径去重）.
func (f *Feed) Load(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= f.fetchAttempts; attempt++ {
		messages, err := f.fetchHistory(ctx)
		if err == nil {
			for _, m := range messages {
				f.insert(NewEntry(m.Content, m.Timestamp))
			}
			return nil
		}
		lastErr = err

		if f.logger != nil {
			f.logger.With(
				logger.Int("attempt", attempt),
				logger.Err(err),
			).Warn("[Feed] 历史拉取失败")
		}

		if attempt == f.fetchAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(ErrFetchHistory, ctx.Err())
		case <-time.After(f.fetchDelay):
		}
	}

	return errors.Join(ErrFetchHistory, lastErr)
}

// Start 启动推送流.
//
// 后台 goroutine 维护连接：断开后等待固定间隔无限重连，
// 直到 Stop 或 ctx 取消. 已在运行时返回 ErrAlreadyRunning.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, f.cancel = context.WithCancel(ctx)
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.streamLoop(ctx)
	}()

	return nil
}

// Stop 关闭推送流并取消待执行的重连.
//
// 重复调用是安全的. 缓冲区内容保留.
func (f *Feed) Stop() {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	f.wg.Wait()
	f.state.Store(int32(StateDisconnected))
}

// wireMessage 服务端的消息形态.
type wireMessage struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (f *Feed) fetchHistory(ctx context.Context) ([]wireMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/v1/messages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var messages []wireMessage
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// streamLoop 维护推送流连接直到 ctx 取消.
func (f *Feed) streamLoop(ctx context.Context) {
	for {
		f.state.Store(int32(StateConnecting))

		err := f.stream(ctx)
		f.state.Store(int32(StateDisconnected))

		if ctx.Err() != nil {
			return
		}

		// 推送流错误不上抛：固定间隔后透明重连
		if f.logger != nil {
			f.logger.With(
				logger.Err(err),
				logger.Duration("reconnectIn", f.reconnectDelay),
			).Warn("[Feed] 推送流断开")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.reconnectDelay):
		}
	}
}

// stream 建立一次推送流连接并消费到断开.
func (f *Feed) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/v1/messages/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	f.state.Store(int32(StateStreaming))
	if f.logger != nil {
		f.logger.Debug("[Feed] 推送流已建立")
	}

	// SSE 帧解析：收集 data 行，空行结束一帧
	scanner := bufio.NewScanner(resp.Body)
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if data.Len() > 0 {
				f.handleFrame(data.String())
				data.Reset()
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// 注释、retry、event 等字段不参与数据重组
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("feed: 连接已断开")
}

// handleFrame 解析单帧数据并合入缓冲区.
//
// 仅 JSON 解析失败的帧被跳过. 解析成功但字段缺失的帧仍然投递：
// 缺失 content 用占位文本兜底，缺失 timestamp 用接收时间兜底.
func (f *Feed) handleFrame(data string) {
	var m wireMessage
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		if f.logger != nil {
			f.logger.With(logger.String("frame", data)).Warn("[Feed] 跳过无法解析的帧")
		}
		return
	}
	if m.Content == "" {
		m.Content = emptyContent
	}
	if m.Timestamp == "" {
		m.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	f.insert(NewEntry(m.Content, m.Timestamp))
}

// insert 幂等合入缓冲区，首次插入时触发回调.
func (f *Feed) insert(entry Entry) {
	if f.buffer.Insert(entry) && f.onMessage != nil {
		f.onMessage(entry)
	}
}
