package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/voltgrid/voltstream/broadcast"
	"github.com/voltgrid/voltstream/logger"
	"github.com/voltgrid/voltstream/messaging"
	"github.com/voltgrid/voltstream/semaphore"
	"github.com/voltgrid/voltstream/transport/sse"
)

// messageResponse 单条消息的响应形态.
type messageResponse struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// publishRequest 发布请求体.
type publishRequest struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// publishResponse 发布结果：消息落点坐标.
type publishResponse struct {
	Partition int32 `json:"partition"`
	Offset    int64 `json:"offset"`
}

// handleHistory 一次性返回主题的全部保留消息.
func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		a.writeError(w, http.StatusInternalServerError, ErrHistoryUnavailable)
		return
	}

	payloads, err := a.history.FetchHistory(r.Context(), a.topic)
	if err != nil {
		a.logError("历史消息读取失败", err)
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]messageResponse, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, messageResponse{Content: p.Content, Timestamp: p.Timestamp})
	}
	a.writeJSON(w, http.StatusOK, out)
}

// handleStream 建立 SSE 推送流.
//
// 连接期间持有一个广播订阅和一个流许可，均在连接结束时释放.
func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	if a.subscriber == nil {
		a.writeError(w, http.StatusInternalServerError, ErrStreamUnavailable)
		return
	}

	if a.streams != nil {
		if !a.streams.TryAcquire(r.Context()) {
			a.writeError(w, http.StatusServiceUnavailable, semaphore.ErrNoPermit)
			return
		}
		defer func() { _ = a.streams.Release(r.Context()) }()
	}

	events := make(chan *sse.Event, a.streamBuffer)
	cancel, err := a.subscriber.Subscribe(func(rec broadcast.Record) {
		event, err := sse.NewJSONEvent("message", messageResponse{
			Content:   rec.Content,
			Timestamp: rec.Timestamp,
		})
		if err != nil {
			return
		}
		select {
		case events <- event:
		default:
			// 慢消费者：丢弃而不是阻塞分发循环
			if a.collector != nil {
				a.collector.Counter("pipeline_stream_dropped_total", nil)
			}
		}
	})
	if err != nil {
		a.logError("订阅失败", err)
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer cancel()

	stream, err := sse.NewStream(w, a.sseConfig)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if a.logger != nil {
		a.logger.With(logger.String("remote", r.RemoteAddr)).Debug("[API] 推送流已建立")
	}

	if err := stream.Run(r.Context(), events); err != nil {
		a.logError("推送流中断", err)
	}

	if a.logger != nil {
		a.logger.With(logger.String("remote", r.RemoteAddr)).Debug("[API] 推送流已关闭")
	}
}

// handlePublish 发布单条消息到主题.
func (a *API) handlePublish(w http.ResponseWriter, r *http.Request) {
	if a.publisher == nil {
		a.writeError(w, http.StatusInternalServerError, ErrPublishUnavailable)
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Content == "" {
		a.writeError(w, http.StatusBadRequest, ErrEmptyContent)
		return
	}
	if req.Timestamp == "" {
		req.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	value, err := messaging.Payload{Content: req.Content, Timestamp: req.Timestamp}.Encode()
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	sent, err := a.publisher.SendMessage(r.Context(), &messaging.Message{
		Topic: a.topic,
		Value: value,
	})
	if err != nil {
		a.logError("消息发布失败", err)
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, publishResponse{
		Partition: sent.Partition,
		Offset:    sent.Offset,
	})
}

// handleHealthz 健康检查.
func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.HealthCheck(r.Context()); err != nil {
			a.writeError(w, http.StatusServiceUnavailable, err)
			return
		}
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON 写出 JSON 响应.
func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logError("响应编码失败", err)
	}
}

// writeError 写出 {"error": ...} 响应.
func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (a *API) logError(msg string, err error) {
	if a.logger != nil {
		a.logger.With(logger.Err(err)).Error("[API] " + msg)
	}
}
