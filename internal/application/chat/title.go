package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"z-llm-chat-api/internal/domain/entity"
	"z-llm-chat-api/internal/infrastructure/llm"
	"z-llm-chat-api/pkg/logger"
)

const (
	titleSystemPrompt = "Generate a short title (at most six words) summarizing the user's message. Reply with the title only, no quotes, no punctuation at the end."
	titleMaxRunes     = 60
	titleTimeout      = 30 * time.Second
)

// generateTitleAsync 为新会话异步生成标题。
// 不阻塞主响应，任何失败只记日志，保留默认标题。
func (o *Orchestrator) generateTitleAsync(conversationID, userMessage string, model *entity.LLMModel) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(context.Background(), "标题生成协程崩溃", fmt.Errorf("%v", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
		defer cancel()

		resp, _, err := o.manager.Chat(ctx, model.Provider, &llm.ChatRequest{
			Messages: []llm.ChatMessage{
				{Role: llm.RoleSystem, Content: titleSystemPrompt},
				{Role: llm.RoleUser, Content: userMessage},
			},
			Model:     model.ModelID,
			MaxTokens: 32,
		})
		if err != nil {
			logger.Warn(ctx, "标题生成调用失败", "conversation_id", conversationID, "error", err)
			return
		}

		title := sanitizeTitle(resp.Content)
		if title == "" {
			return
		}

		if err := o.conversations.UpdateTitle(ctx, conversationID, title); err != nil {
			logger.Warn(ctx, "标题写入失败", "conversation_id", conversationID, "error", err)
		}
	}()
}

// sanitizeTitle 去除引号、换行并截断到上限长度
func sanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	if i := strings.IndexAny(title, "\r\n"); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		title = string(runes[:titleMaxRunes])
	}
	return title
}
