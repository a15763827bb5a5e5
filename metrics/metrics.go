// Package metrics 提供 Prometheus 指标收集功能.
package metrics

import (
	"errors"
	"net/http"
)

// 预定义错误.
var (
	// ErrNilConfig 配置为空.
	ErrNilConfig = errors.New("metrics: 配置为空")

	// ErrRegisterMetric 注册指标失败.
	ErrRegisterMetric = errors.New("metrics: 注册指标失败")
)

// Config 指标监控配置.
type Config struct {
	// Path 指标暴露路径，默认 /metrics
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// Namespace 指标命名空间
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
}

// DefaultConfig 返回默认配置.
func DefaultConfig() *Config {
	return &Config{
		Path:      "/metrics",
		Namespace: "voltstream",
	}
}

// Collector 指标收集器接口.
type Collector interface {
	// HTTP 指标
	RecordHTTPRequest(method, path, statusCode string, duration float64)

	// 自定义指标
	Counter(name string, labels map[string]string)
	Histogram(name string, value float64, labels map[string]string)
	Gauge(name string, value float64, labels map[string]string)

	// Handler 返回指标暴露处理器
	Handler() http.Handler
}

// New 创建指标收集器.
func New(cfg *Config) (*PrometheusCollector, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	return newPrometheus(cfg)
}

// MustNew 创建指标收集器，失败时 panic.
func MustNew(cfg *Config) *PrometheusCollector {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}
