package sse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEvent_Bytes(t *testing.T) {
	t.Run("full event", func(t *testing.T) {
		e := &Event{ID: "1", Event: "message", Data: []byte("hello"), Retry: 3000}
		got := string(e.Bytes())
		want := "id: 1\nevent: message\nretry: 3000\ndata: hello\n\n"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("data only", func(t *testing.T) {
		e := &Event{Data: []byte(`{"content":"x"}`)}
		got := string(e.Bytes())
		if got != "data: {\"content\":\"x\"}\n\n" {
			t.Errorf("unexpected frame: %q", got)
		}
	})

	t.Run("empty event is a bare separator", func(t *testing.T) {
		e := &Event{}
		if string(e.Bytes()) != "\n" {
			t.Errorf("unexpected frame: %q", e.Bytes())
		}
	})
}

// plainRecorder 不实现 http.Flusher 的 ResponseWriter.
type plainRecorder struct {
	header http.Header
}

func (p *plainRecorder) Header() http.Header         { return p.header }
func (p *plainRecorder) Write(b []byte) (int, error) { return len(b), nil }
func (p *plainRecorder) WriteHeader(statusCode int)  {}

func TestNewStream(t *testing.T) {
	t.Run("not a flusher", func(t *testing.T) {
		_, err := NewStream(&plainRecorder{header: http.Header{}}, nil)
		if !errors.Is(err, ErrNotFlusher) {
			t.Errorf("expected ErrNotFlusher, got %v", err)
		}
	})

	t.Run("headers and retry hint", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, err := NewStream(rec, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
			t.Errorf("expected text/event-stream, got %q", ct)
		}
		if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
			t.Errorf("expected no-cache, got %q", cc)
		}
		if !strings.HasPrefix(rec.Body.String(), "retry: 3000\n\n") {
			t.Errorf("expected retry hint, got %q", rec.Body.String())
		}
	})

	t.Run("custom headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		cfg := DefaultConfig()
		cfg.Headers["X-Custom"] = "yes"
		_, err := NewStream(rec, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Header().Get("X-Custom") != "yes" {
			t.Error("expected custom header to be set")
		}
	})
}

func TestStream_Send(t *testing.T) {
	rec := httptest.NewRecorder()
	cfg := DefaultConfig()
	cfg.RetryInterval = 0
	s, err := NewStream(rec, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Send(&Event{Data: []byte("one")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "data: one\n\n" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Send(&Event{Data: []byte("two")}); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("expected ErrStreamClosed, got %v", err)
	}
}

func TestStream_Run(t *testing.T) {
	t.Run("pushes events until channel closes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		cfg := DefaultConfig()
		cfg.RetryInterval = 0
		s, _ := NewStream(rec, cfg)

		events := make(chan *Event, 2)
		events <- &Event{Data: []byte("a")}
		events <- &Event{Data: []byte("b")}
		close(events)

		if err := s.Run(context.Background(), events); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		body := rec.Body.String()
		if !strings.Contains(body, "data: a\n\n") || !strings.Contains(body, "data: b\n\n") {
			t.Errorf("expected both frames, got %q", body)
		}
	})

	t.Run("context cancel stops the loop", func(t *testing.T) {
		rec := httptest.NewRecorder()
		cfg := DefaultConfig()
		cfg.RetryInterval = 0
		s, _ := NewStream(rec, cfg)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := s.Run(ctx, make(chan *Event)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Send(&Event{Data: []byte("late")}); !errors.Is(err, ErrStreamClosed) {
			t.Error("expected stream to be closed after Run returns")
		}
	})

	t.Run("heartbeat comments are emitted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		cfg := DefaultConfig()
		cfg.RetryInterval = 0
		cfg.HeartbeatInterval = 5 * time.Millisecond
		s, _ := NewStream(rec, cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		if err := s.Run(ctx, make(chan *Event)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(rec.Body.String(), ": heartbeat\n\n") {
			t.Errorf("expected heartbeat comment, got %q", rec.Body.String())
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("NewJSONEvent", func(t *testing.T) {
		e, err := NewJSONEvent("message", map[string]string{"content": "hi"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Event != "message" {
			t.Errorf("expected event type 'message', got %q", e.Event)
		}
		if !strings.Contains(string(e.Data), `"content":"hi"`) {
			t.Errorf("unexpected data: %s", e.Data)
		}
	})

	t.Run("NewMessageEvent", func(t *testing.T) {
		e := NewMessageEvent("hi")
		if e.Event != "message" || string(e.Data) != "hi" {
			t.Errorf("unexpected event: %+v", e)
		}
	})
}
