// Package llm 将不同上游提供商的流式接口统一为标准事件流
package llm

import (
	"context"
)

// Role 消息角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 一条对话消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage 上游报告的 token 用量
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// EventType 流事件类型
type EventType string

const (
	// EventContent 携带增量或累计文本
	EventContent EventType = "content"
	// EventDone 流正常结束
	EventDone EventType = "done"
	// EventError 流异常结束
	EventError EventType = "error"
)

// StreamEvent 标准化流事件。
// 每条流中 EventDone 或 EventError 恰好出现一次且必为最后一个事件。
type StreamEvent struct {
	Type EventType
	// Delta 增量文本片段，追加到累计内容
	Delta string
	// Content 累计全文，非空时整体覆盖已累计内容
	Content string
	// Usage 上游报告的用量，通常随终止事件出现
	Usage *Usage
	// Err 仅 EventError 事件携带
	Err error
}

// ChatRequest 一次模型调用请求
type ChatRequest struct {
	Messages    []ChatMessage
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatResponse 非流式调用的完整响应
type ChatResponse struct {
	Content string
	Usage   *Usage
}

// Provider 单个上游提供商的适配器。
// ChatStream 返回的通道由适配器内部关闭，生产节奏由消费方驱动。
type Provider interface {
	Name() string
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	ChatStream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error)
}
