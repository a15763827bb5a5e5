package recovery

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voltgrid/voltstream/logger"
)

// noopLogger 测试用空日志记录器.
type noopLogger struct{}

func (noopLogger) Debug(args ...any)                         {}
func (noopLogger) Debugf(format string, args ...any)         {}
func (noopLogger) Info(args ...any)                          {}
func (noopLogger) Infof(format string, args ...any)          {}
func (noopLogger) Warn(args ...any)                          {}
func (noopLogger) Warnf(format string, args ...any)          {}
func (noopLogger) Error(args ...any)                         {}
func (noopLogger) Errorf(format string, args ...any)         {}
func (noopLogger) Fatal(args ...any)                         {}
func (noopLogger) Fatalf(format string, args ...any)         {}
func (noopLogger) With(fields ...logger.Field) logger.Logger { return noopLogger{} }
func (noopLogger) Sync() error                               { return nil }
func (noopLogger) Close() error                              { return nil }

func TestHTTPMiddleware_RecoversPanic(t *testing.T) {
	handler := HTTPMiddleware(WithLogger(noopLogger{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHTTPMiddleware_PassThrough(t *testing.T) {
	handler := HTTPMiddleware(WithLogger(noopLogger{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestHTTPMiddleware_CustomHandler(t *testing.T) {
	var captured any
	handler := HTTPMiddleware(
		WithLogger(noopLogger{}),
		WithHandler(func(ctx any, p any, stack []byte) error {
			captured = p
			return nil
		}),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("custom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured != "custom" {
		t.Fatalf("expected custom handler to receive panic value, got %v", captured)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHTTPMiddleware_NoLogger(t *testing.T) {
	// 未配置日志时依然恢复 panic
	handler := HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
