package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"z-llm-chat-api/internal/application/chat"
	"z-llm-chat-api/internal/interfaces/http/middleware"
)

// stubStreamer 测试用编排器
type stubStreamer struct {
	frames []chat.Frame
	err    error
	gotReq *chat.StreamRequest
}

func (s *stubStreamer) StreamChat(_ context.Context, req *chat.StreamRequest, sink chat.Sink) error {
	s.gotReq = req
	for _, f := range s.frames {
		if !sink(f) {
			break
		}
	}
	return s.err
}

func newChatRouter(streamer ChatStreamer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, "user-1")
		c.Next()
	})
	r.POST("/v1/chat/stream", NewChatHandler(streamer).Stream)
	return r
}

// 解析 SSE 响应体中的 data 行
func parseSSE(t *testing.T, body string) []string {
	t.Helper()
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			lines = append(lines, strings.TrimPrefix(line, "data: "))
		}
	}
	return lines
}

func TestChatHandler_StreamRelaysFramesAndSentinel(t *testing.T) {
	streamer := &stubStreamer{
		frames: []chat.Frame{
			{Type: chat.FrameStart, Data: chat.StartPayload{ConversationID: "conv-1", Model: "m", Provider: "p"}},
			{Type: chat.FrameContent, Data: chat.ContentPayload{Delta: "4"}},
			{Type: chat.FrameDone, Data: chat.DonePayload{ConversationID: "conv-1"}},
		},
	}
	r := newChatRouter(streamer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream",
		strings.NewReader(`{"message":"2+2?"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	lines := parseSSE(t, w.Body.String())
	if len(lines) != 4 {
		t.Fatalf("got %d data lines, want 4: %v", len(lines), lines)
	}
	if lines[len(lines)-1] != "[DONE]" {
		t.Errorf("last line = %q, want [DONE]", lines[len(lines)-1])
	}

	var first chat.Frame
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first frame is not valid json: %v", err)
	}
	if first.Type != chat.FrameStart {
		t.Errorf("first frame type = %q, want start", first.Type)
	}

	if streamer.gotReq.UserID != "user-1" || streamer.gotReq.Message != "2+2?" {
		t.Errorf("request = %+v", streamer.gotReq)
	}
}

func TestChatHandler_StreamMissingMessage(t *testing.T) {
	r := newChatRouter(&stubStreamer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChatHandler_StreamSentinelAfterErrorFrame(t *testing.T) {
	streamer := &stubStreamer{
		frames: []chat.Frame{
			{Type: chat.FrameError, Data: chat.ErrorPayload{Error: "upstream failed"}},
		},
	}
	r := newChatRouter(streamer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream",
		strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	lines := parseSSE(t, w.Body.String())
	if len(lines) != 2 {
		t.Fatalf("got %d data lines, want error frame plus sentinel: %v", len(lines), lines)
	}
	if lines[1] != "[DONE]" {
		t.Errorf("stream should still end with the sentinel, got %q", lines[1])
	}
}
