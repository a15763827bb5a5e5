package main

import (
	"errors"
	"time"

	"github.com/voltgrid/voltstream/logger"
	"github.com/voltgrid/voltstream/metrics"
)

// 预定义配置错误.
var (
	errNoBrokers = errors.New("config: messaging.brokers 不能为空")
	errNoTopic   = errors.New("config: messaging.topic 不能为空")
	errNoGroupID = errors.New("config: messaging.group_id 不能为空")
	errNoAddr    = errors.New("config: http.addr 不能为空")
)

// Config 服务配置.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	Log       logger.Config   `mapstructure:"log"`
	Metrics   metrics.Config  `mapstructure:"metrics"`
}

// ServiceConfig 服务标识.
type ServiceConfig struct {
	Name            string        `mapstructure:"name"`
	Version         string        `mapstructure:"version"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// HTTPConfig HTTP 服务配置.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
	// StreamLimit 并发推送流上限，0 表示不限制.
	StreamLimit int64 `mapstructure:"stream_limit"`
	// StreamBuffer 每个连接的事件缓冲区大小.
	StreamBuffer int `mapstructure:"stream_buffer"`
	// HeartbeatInterval SSE 心跳间隔.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// MessagingConfig 消息管道配置.
type MessagingConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	GroupID  string   `mapstructure:"group_id"`
	ClientID string   `mapstructure:"client_id"`
}

// Validate 实现 config.Validatable.
func (c *Config) Validate() error {
	if len(c.Messaging.Brokers) == 0 {
		return errNoBrokers
	}
	if c.Messaging.Topic == "" {
		return errNoTopic
	}
	if c.Messaging.GroupID == "" {
		return errNoGroupID
	}
	if c.HTTP.Addr == "" {
		return errNoAddr
	}
	return nil
}

// configDefaults 加载时注入的默认值.
func configDefaults() map[string]any {
	return map[string]any{
		"service.name":             "voltstream",
		"service.version":          "1.0.0",
		"service.graceful_timeout": "30s",
		"http.addr":                ":8080",
		"http.stream_limit":        int64(100),
		"http.stream_buffer":       256,
		"http.heartbeat_interval":  "30s",
		"messaging.group_id":       "voltstream-live",
		"messaging.client_id":      "voltstream",
		"log.level":                "info",
		"log.format":               "json",
		"metrics.path":             "/metrics",
		"metrics.namespace":        "voltstream",
	}
}
