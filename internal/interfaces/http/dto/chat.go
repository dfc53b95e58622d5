package dto

// ChatStreamRequest 流式对话请求
type ChatStreamRequest struct {
	// ConversationID 为空时创建新会话
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
	// ModelID 为空时按用户偏好和默认配置解析
	ModelID string `json:"model_id"`
}
