package messaging

import (
	"time"

	"github.com/voltgrid/voltstream/metrics"
)

// pipelineMetrics 消息管道指标的薄封装.
//
// 统一管道各阶段的指标名，避免发送端和消费端各自拼装名字.
type pipelineMetrics struct {
	collector *metrics.PrometheusCollector
}

func newPipelineMetrics(collector *metrics.PrometheusCollector) *pipelineMetrics {
	if collector == nil {
		return nil
	}
	return &pipelineMetrics{collector: collector}
}

// RecordSend 记录一次成功发送.
func (m *pipelineMetrics) RecordSend(topic string, latency time.Duration) {
	m.collector.Counter("pipeline_messages_sent_total", map[string]string{"topic": topic})
	m.collector.Histogram("pipeline_send_duration_seconds", latency.Seconds(), map[string]string{"topic": topic})
}

// RecordSendError 记录一次发送失败.
func (m *pipelineMetrics) RecordSendError(topic string) {
	m.collector.Counter("pipeline_send_errors_total", map[string]string{"topic": topic})
}

// RecordConsume 记录一次消息消费（含处理器耗时）.
func (m *pipelineMetrics) RecordConsume(topic, groupID string, latency time.Duration) {
	labels := map[string]string{"topic": topic, "group": groupID}
	m.collector.Counter("pipeline_messages_consumed_total", labels)
	m.collector.Histogram("pipeline_consume_duration_seconds", latency.Seconds(), labels)
}

// RecordConsumeError 记录一次消费或处理器错误.
func (m *pipelineMetrics) RecordConsumeError(topic, groupID string) {
	m.collector.Counter("pipeline_consume_errors_total", map[string]string{"topic": topic, "group": groupID})
}

// RecordHistoryFetch 记录一次历史回放及返回条数.
func (m *pipelineMetrics) RecordHistoryFetch(topic string, count int, latency time.Duration) {
	m.collector.Counter("pipeline_history_fetches_total", map[string]string{"topic": topic})
	m.collector.Histogram("pipeline_history_fetch_duration_seconds", latency.Seconds(), map[string]string{"topic": topic})
	m.collector.Gauge("pipeline_history_last_batch_size", float64(count), map[string]string{"topic": topic})
}
