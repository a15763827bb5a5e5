package server

import (
	"time"

	"github.com/voltgrid/voltstream/logger"
)

// HTTPOption HTTP 服务器配置选项.
type HTTPOption func(*httpOptions)

// httpOptions HTTP 服务器内部配置.
type httpOptions struct {
	name         string
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	logger       logger.Logger
}

// defaultHTTPOptions 返回默认 HTTP 配置.
func defaultHTTPOptions() *httpOptions {
	return &httpOptions{
		name:        "HTTP",
		addr:        ":8080",
		readTimeout: 30 * time.Second,
		idleTimeout: 120 * time.Second,
	}
}

// WithHTTPName 设置 HTTP 服务器名称.
func WithHTTPName(name string) HTTPOption {
	return func(o *httpOptions) {
		o.name = name
	}
}

// WithHTTPAddr 设置 HTTP 监听地址.
func WithHTTPAddr(addr string) HTTPOption {
	return func(o *httpOptions) {
		o.addr = addr
	}
}

// WithHTTPReadTimeout 设置读取超时.
func WithHTTPReadTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) {
		o.readTimeout = d
	}
}

// WithHTTPWriteTimeout 设置写入超时.
//
// 长连接推送流（SSE）需要写超时为零，否则连接会被定期切断；
// 默认不设置写超时.
func WithHTTPWriteTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) {
		o.writeTimeout = d
	}
}

// WithHTTPIdleTimeout 设置空闲超时.
func WithHTTPIdleTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) {
		o.idleTimeout = d
	}
}

// WithHTTPLogger 设置日志记录器.
func WithHTTPLogger(log logger.Logger) HTTPOption {
	return func(o *httpOptions) {
		o.logger = log
	}
}
