package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/voltgrid/voltstream/metrics"
)

func TestClientOptions(t *testing.T) {
	t.Run("WithBrokers", func(t *testing.T) {
		c := &Client{}
		WithBrokers([]string{"localhost:9092"})(c)
		if len(c.brokers) != 1 || c.brokers[0] != "localhost:9092" {
			t.Error("expected brokers to be set")
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		c := &Client{}
		log := &mockLogger{}
		WithLogger(log)(c)
		if c.logger == nil {
			t.Error("expected logger to be set")
		}
	})

	t.Run("WithClientID", func(t *testing.T) {
		c := &Client{}
		WithClientID("test-client")(c)
		if c.clientID != "test-client" {
			t.Errorf("expected clientID 'test-client', got '%s'", c.clientID)
		}
	})

	t.Run("WithMetrics", func(t *testing.T) {
		c := &Client{}
		collector := metrics.MustNew(&metrics.Config{Namespace: "test"})
		WithMetrics(collector)(c)
		if c.metrics == nil {
			t.Error("expected metrics to be set")
		}
	})

	t.Run("WithMetrics nil collector", func(t *testing.T) {
		c := &Client{}
		WithMetrics(nil)(c)
		if c.metrics != nil {
			t.Error("expected nil metrics for nil collector")
		}
	})
}

func TestNewClient_Validation(t *testing.T) {
	t.Run("no brokers", func(t *testing.T) {
		_, err := NewClient()
		if !errors.Is(err, ErrNoBrokers) {
			t.Errorf("expected ErrNoBrokers, got %v", err)
		}
	})
}

func TestClient_Brokers(t *testing.T) {
	brokers := []string{"localhost:9092", "localhost:9093"}
	c := &Client{brokers: brokers}

	result := c.Brokers()
	if len(result) != 2 {
		t.Errorf("expected 2 brokers, got %d", len(result))
	}

	// 验证返回的是副本而非原始切片
	result[0] = "modified"
	if c.brokers[0] == "modified" {
		t.Error("Brokers() should return a copy, not the original slice")
	}
}

func TestClient_Producer_Closed(t *testing.T) {
	c := &Client{
		brokers: []string{"localhost:9092"},
		closed:  true,
	}

	_, err := c.Producer()
	if !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}

func TestClient_Consumer_Closed(t *testing.T) {
	c := &Client{
		brokers: []string{"localhost:9092"},
		closed:  true,
	}

	_, err := c.Consumer("test-group")
	if !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}

func TestClient_ConsumerRemovedOnClose(t *testing.T) {
	c := &Client{brokers: []string{"localhost:9092"}}

	// 模拟反复的会话重建：注册若干消费者并逐个关闭
	for i := 0; i < 3; i++ {
		consumer := &KafkaConsumer{groupID: "bess-live"}
		consumer.onClose = func() { c.removeConsumer(consumer) }
		c.consumers = append(c.consumers, consumer)
	}
	if len(c.consumers) != 3 {
		t.Fatalf("expected 3 registered consumers, got %d", len(c.consumers))
	}

	for len(c.consumers) > 0 {
		if err := c.consumers[0].Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(c.consumers) != 0 {
		t.Errorf("expected closed consumers to be deregistered, got %d left", len(c.consumers))
	}

	// 重复关闭不再触发注销回调
	consumer := &KafkaConsumer{groupID: "bess-live"}
	consumer.onClose = func() { c.removeConsumer(consumer) }
	c.consumers = append(c.consumers, consumer)
	_ = consumer.Close()
	_ = consumer.Close()
	if len(c.consumers) != 0 {
		t.Errorf("expected deregistration to be idempotent, got %d left", len(c.consumers))
	}
}

func TestClient_HealthCheck_Closed(t *testing.T) {
	c := &Client{closed: true}

	err := c.HealthCheck(context.Background())
	if !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}

func TestClient_FetchHistory_Validation(t *testing.T) {
	t.Run("empty topic", func(t *testing.T) {
		c := &Client{brokers: []string{"localhost:9092"}}
		_, err := c.FetchHistory(context.Background(), "")
		if !errors.Is(err, ErrEmptyTopic) {
			t.Errorf("expected ErrEmptyTopic, got %v", err)
		}
	})

	t.Run("client closed", func(t *testing.T) {
		c := &Client{closed: true}
		_, err := c.FetchHistory(context.Background(), "bess-notifications")
		if !errors.Is(err, ErrClientClosed) {
			t.Errorf("expected ErrClientClosed, got %v", err)
		}
	})
}

func TestClient_Shutdown_Idempotent(t *testing.T) {
	c := &Client{
		brokers: []string{"localhost:9092"},
		closed:  true,
	}

	// 已关闭的客户端再次关闭应该直接返回
	if err := c.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
