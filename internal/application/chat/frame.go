package chat

// FrameType 推送给客户端的帧类型
type FrameType string

const (
	// FrameStart 流开始，携带模型与提供商信息
	FrameStart FrameType = "start"
	// FrameContent 增量内容
	FrameContent FrameType = "content"
	// FrameComplete 生成完成，携带用量快照
	FrameComplete FrameType = "complete"
	// FrameDone 全部处理完成，携带会话 ID 与最终用量
	FrameDone FrameType = "done"
	// FrameError 处理失败
	FrameError FrameType = "error"
)

// Frame 推送给客户端的单个事件帧
type Frame struct {
	Type FrameType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// StartPayload start 帧负载
type StartPayload struct {
	ConversationID string `json:"conversation_id"`
	Model          string `json:"model"`
	Provider       string `json:"provider"`
}

// ContentPayload content 帧负载。Delta 为增量片段，
// Content 非空时表示累计全文整体覆盖
type ContentPayload struct {
	Delta   string `json:"delta,omitempty"`
	Content string `json:"content,omitempty"`
}

// CompletePayload complete 帧负载，持久化前的用量快照
type CompletePayload struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
}

// DonePayload done 帧负载
type DonePayload struct {
	ConversationID string `json:"conversation_id"`
	Usage          Usage  `json:"usage"`
}

// ErrorPayload error 帧负载
type ErrorPayload struct {
	Error string `json:"error"`
}

// Sink 帧输出回调。返回 false 表示客户端不再接收，
// 编排器停止转发但不视为错误。
type Sink func(Frame) bool
