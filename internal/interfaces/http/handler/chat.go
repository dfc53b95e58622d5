// Package handler 实现 HTTP 请求处理
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"z-llm-chat-api/internal/application/chat"
	"z-llm-chat-api/internal/interfaces/http/dto"
	"z-llm-chat-api/internal/interfaces/http/middleware"
	apperrors "z-llm-chat-api/pkg/errors"
	"z-llm-chat-api/pkg/logger"
)

// ChatStreamer 流式对话入口
type ChatStreamer interface {
	StreamChat(ctx context.Context, req *chat.StreamRequest, sink chat.Sink) error
}

// ChatHandler 流式对话接口
type ChatHandler struct {
	orchestrator ChatStreamer
}

// NewChatHandler 创建对话处理器
func NewChatHandler(orchestrator ChatStreamer) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// Stream 处理 POST /v1/chat/stream。
// 以 SSE 推送事件帧，最后写入 [DONE] 哨兵结束流。
func (h *ChatHandler) Stream(c *gin.Context) {
	var req dto.ChatStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.Error(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid request body"))
		return
	}

	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		dto.Error(c, apperrors.ErrUnauthorized)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	sink := func(frame chat.Frame) bool {
		payload, err := json.Marshal(frame)
		if err != nil {
			logger.Warn(c.Request.Context(), "事件帧序列化失败", "type", string(frame.Type), "error", err)
			return true
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	// 错误已通过 error 帧推送给客户端，并在编排器内记录
	_ = h.orchestrator.StreamChat(c.Request.Context(), &chat.StreamRequest{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Message:        req.Message,
		ModelID:        req.ModelID,
	}, sink)

	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}
