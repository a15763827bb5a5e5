// Package api 提供消息管道的 HTTP 接口.
//
// 路由:
//
//	GET  /api/v1/messages        历史消息一次性读取
//	GET  /api/v1/messages/stream 实时消息推送（SSE）
//	POST /api/v1/messages        发布消息
//	GET  /healthz                健康检查
//
// 所有处理器包裹 panic 恢复与请求指标中间件.
package api

import (
	"context"
	"net/http"

	"github.com/voltgrid/voltstream/broadcast"
	"github.com/voltgrid/voltstream/logger"
	"github.com/voltgrid/voltstream/messaging"
	"github.com/voltgrid/voltstream/metrics"
	"github.com/voltgrid/voltstream/recovery"
	"github.com/voltgrid/voltstream/semaphore"
	"github.com/voltgrid/voltstream/transport/sse"
)

// HistoryFetcher 历史消息读取入口，*messaging.Client 实现该接口.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, topic string) ([]messaging.Payload, error)
}

// Publisher 消息发布入口，*messaging.KafkaProducer 实现该接口.
type Publisher interface {
	SendMessage(ctx context.Context, msg *messaging.Message) (*messaging.Message, error)
}

// Subscriber 实时订阅入口，*broadcast.Broadcaster 实现该接口.
type Subscriber interface {
	Subscribe(listener broadcast.Listener) (func(), error)
}

// HealthChecker 健康检查入口，*messaging.Client 实现该接口.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// API HTTP 接口.
type API struct {
	topic      string
	history    HistoryFetcher
	publisher  Publisher
	subscriber Subscriber
	health     HealthChecker

	logger    logger.Logger
	collector *metrics.PrometheusCollector
	streams   semaphore.Semaphore
	sseConfig *sse.Config

	// 每个连接的事件缓冲区大小
	streamBuffer int
}

// Option API 配置选项.
type Option func(*API)

// WithHistory 设置历史消息读取入口.
func WithHistory(h HistoryFetcher) Option {
	return func(a *API) {
		a.history = h
	}
}

// WithPublisher 设置消息发布入口.
func WithPublisher(p Publisher) Option {
	return func(a *API) {
		a.publisher = p
	}
}

// WithSubscriber 设置实时订阅入口.
func WithSubscriber(s Subscriber) Option {
	return func(a *API) {
		a.subscriber = s
	}
}

// WithHealth 设置健康检查入口.
func WithHealth(h HealthChecker) Option {
	return func(a *API) {
		a.health = h
	}
}

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) Option {
	return func(a *API) {
		a.logger = log
	}
}

// WithMetrics 启用请求指标.
func WithMetrics(collector *metrics.PrometheusCollector) Option {
	return func(a *API) {
		a.collector = collector
	}
}

// WithStreamLimit 限制并发推送流数量.
//
// 超过限制的流请求返回 503.
func WithStreamLimit(n int64) Option {
	return func(a *API) {
		a.streams = semaphore.NewLocal(n)
	}
}

// WithSSEConfig 设置 SSE 配置（心跳间隔、重试提示等）.
func WithSSEConfig(cfg *sse.Config) Option {
	return func(a *API) {
		a.sseConfig = cfg
	}
}

// WithStreamBuffer 设置每个连接的事件缓冲区大小.
//
// 缓冲区满时丢弃最新事件（慢消费者保护），默认 256.
func WithStreamBuffer(size int) Option {
	return func(a *API) {
		a.streamBuffer = size
	}
}

// New 创建 HTTP 接口.
func New(topic string, opts ...Option) (*API, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	a := &API{
		topic:        topic,
		streamBuffer: 256,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Handler 组装路由及中间件链.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/messages", a.handleHistory)
	mux.HandleFunc("GET /api/v1/messages/stream", a.handleStream)
	mux.HandleFunc("POST /api/v1/messages", a.handlePublish)
	mux.HandleFunc("GET /healthz", a.handleHealthz)

	if a.collector != nil {
		mux.Handle("GET "+a.collector.Path(), a.collector.Handler())
	}

	var handler http.Handler = mux
	if a.collector != nil {
		handler = metrics.HTTPMiddleware(a.collector)(handler)
	}

	recoveryOpts := make([]recovery.Option, 0, 1)
	if a.logger != nil {
		recoveryOpts = append(recoveryOpts, recovery.WithLogger(a.logger))
	}
	return recovery.HTTPMiddleware(recoveryOpts...)(handler)
}
