package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/voltgrid/voltstream/broadcast"
	"github.com/voltgrid/voltstream/messaging"
)

// fakeHistory 模拟历史消息读取入口.
type fakeHistory struct {
	payloads []messaging.Payload
	err      error
}

func (f *fakeHistory) FetchHistory(ctx context.Context, topic string) ([]messaging.Payload, error) {
	return f.payloads, f.err
}

// fakeSubscriber 模拟实时订阅入口.
type fakeSubscriber struct {
	mu        sync.Mutex
	listeners []broadcast.Listener
	err       error
}

func (f *fakeSubscriber) Subscribe(listener broadcast.Listener) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.listeners = append(f.listeners, listener)
	f.mu.Unlock()
	return func() {}, nil
}

func (f *fakeSubscriber) deliver(rec broadcast.Record) {
	f.mu.Lock()
	listeners := append([]broadcast.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		l(rec)
	}
}

// fakePublisher 模拟消息发布入口.
type fakePublisher struct {
	sent *messaging.Message
	err  error
}

func (f *fakePublisher) SendMessage(ctx context.Context, msg *messaging.Message) (*messaging.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = msg
	out := *msg
	out.Partition = 2
	out.Offset = 99
	return &out, nil
}

// fakeHealth 模拟健康检查入口.
type fakeHealth struct {
	err error
}

func (f *fakeHealth) HealthCheck(ctx context.Context) error {
	return f.err
}

func TestNew_Validation(t *testing.T) {
	_, err := New("")
	if !errors.Is(err, ErrEmptyTopic) {
		t.Errorf("expected ErrEmptyTopic, got %v", err)
	}
}

func TestHandleHistory(t *testing.T) {
	t.Run("returns payloads as json array", func(t *testing.T) {
		a, _ := New("bess-notifications", WithHistory(&fakeHistory{
			payloads: []messaging.Payload{
				{Content: "SOC low", Timestamp: "2026-01-15T10:00:00Z"},
				{Content: "charging", Timestamp: "2026-01-15T10:01:00Z"},
			},
		}))

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var out []messageResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if len(out) != 2 || out[0].Content != "SOC low" {
			t.Errorf("unexpected body: %+v", out)
		}
	})

	t.Run("empty topic yields empty array not null", func(t *testing.T) {
		a, _ := New("bess-notifications", WithHistory(&fakeHistory{}))

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))

		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("expected empty array, got %q", rec.Body.String())
		}
	})

	t.Run("fetch failure returns 500 with error body", func(t *testing.T) {
		a, _ := New("bess-notifications", WithHistory(&fakeHistory{
			err: errors.New("broker unreachable"),
		}))

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		var out map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if out["error"] == "" {
			t.Error("expected error field in body")
		}
	})
}

func TestHandleStream(t *testing.T) {
	t.Run("pushes broadcast records as sse frames", func(t *testing.T) {
		sub := &fakeSubscriber{}
		a, _ := New("bess-notifications", WithSubscriber(sub))

		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/messages/stream", nil).WithContext(ctx)
		rec := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			defer close(done)
			a.Handler().ServeHTTP(rec, req)
		}()

		// 等待订阅建立
		deadline := time.Now().Add(time.Second)
		for {
			sub.mu.Lock()
			n := len(sub.listeners)
			sub.mu.Unlock()
			if n > 0 || time.Now().After(deadline) {
				break
			}
			time.Sleep(time.Millisecond)
		}

		sub.deliver(broadcast.Record{
			Payload: messaging.Payload{Content: "SOC low", Timestamp: "2026-01-15T10:00:00Z"},
		})

		// 推送是异步的，给事件循环一点时间
		time.Sleep(50 * time.Millisecond)
		cancel()
		<-done

		body := rec.Body.String()
		if !strings.Contains(body, "event: message\n") {
			t.Errorf("expected message event, got %q", body)
		}
		if !strings.Contains(body, `"content":"SOC low"`) {
			t.Errorf("expected payload data, got %q", body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
			t.Errorf("expected text/event-stream, got %q", ct)
		}
	})

	t.Run("subscribe failure returns 500 before streaming", func(t *testing.T) {
		a, _ := New("bess-notifications", WithSubscriber(&fakeSubscriber{
			err: errors.New("session start failed"),
		}))

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages/stream", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json error, got %q", ct)
		}
	})

	t.Run("stream cap rejects excess connections", func(t *testing.T) {
		sub := &fakeSubscriber{}
		a, _ := New("bess-notifications", WithSubscriber(sub), WithStreamLimit(1))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		first := make(chan struct{})
		go func() {
			defer close(first)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/messages/stream", nil).WithContext(ctx)
			a.Handler().ServeHTTP(httptest.NewRecorder(), req)
		}()

		// 等待第一个流占用许可
		deadline := time.Now().Add(time.Second)
		for {
			sub.mu.Lock()
			n := len(sub.listeners)
			sub.mu.Unlock()
			if n > 0 || time.Now().After(deadline) {
				break
			}
			time.Sleep(time.Millisecond)
		}

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages/stream", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}

		cancel()
		<-first
	})
}

func TestHandlePublish(t *testing.T) {
	t.Run("publishes payload and returns coordinates", func(t *testing.T) {
		pub := &fakePublisher{}
		a, _ := New("bess-notifications", WithPublisher(pub))

		body := strings.NewReader(`{"content":"manual note","timestamp":"2026-01-15T10:00:00Z"}`)
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/messages", body))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if pub.sent == nil || pub.sent.Topic != "bess-notifications" {
			t.Fatalf("expected message sent to topic, got %+v", pub.sent)
		}

		decoded := messaging.DecodePayload(pub.sent.Value, time.Now())
		if decoded.Content != "manual note" {
			t.Errorf("unexpected payload: %+v", decoded)
		}

		var out publishResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if out.Partition != 2 || out.Offset != 99 {
			t.Errorf("unexpected coordinates: %+v", out)
		}
	})

	t.Run("missing content is rejected", func(t *testing.T) {
		a, _ := New("bess-notifications", WithPublisher(&fakePublisher{}))

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(`{}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		a, _ := New("bess-notifications", WithPublisher(&fakePublisher{}))

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(`{broken`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("send failure returns 500", func(t *testing.T) {
		a, _ := New("bess-notifications", WithPublisher(&fakePublisher{
			err: errors.New("send failed"),
		}))

		body := strings.NewReader(`{"content":"x"}`)
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/messages", body))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

// panicHistory 在读取时 panic 的历史入口.
type panicHistory struct{}

func (panicHistory) FetchHistory(ctx context.Context, topic string) ([]messaging.Payload, error) {
	panic("history backend gone")
}

func TestHandler_RecoversPanicWithoutLogger(t *testing.T) {
	a, err := New("alerts", WithHistory(panicHistory{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 from recovered panic, got %d", rec.Code)
	}
}

func TestHandleHealthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		a, _ := New("bess-notifications", WithHealth(&fakeHealth{}))

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		a, _ := New("bess-notifications", WithHealth(&fakeHealth{
			err: errors.New("no brokers"),
		}))

		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}
