// Package chat 实现流式对话的编排逻辑
package chat

import (
	"context"

	"z-llm-chat-api/internal/domain/entity"
	"z-llm-chat-api/internal/infrastructure/llm"
	"z-llm-chat-api/pkg/logger"
)

// Usage 一次对话的 token 用量与费用
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
	Model        string  `json:"model"`
	Provider     string  `json:"provider"`
}

// EstimateTokens 按约 4 字节一个 token 估算，仅在上游未报告用量时使用
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ComputeUsage 汇总一次对话的用量。上游报告的计数优先，
// 缺失时按文本长度估算；模型单价缺失时费用记为零。
func ComputeUsage(ctx context.Context, reported *llm.Usage, promptText, completion string, model *entity.LLMModel) Usage {
	usage := Usage{
		Model:    model.ModelID,
		Provider: model.Provider,
	}

	if reported != nil && reported.TotalTokens > 0 {
		usage.InputTokens = reported.InputTokens
		usage.OutputTokens = reported.OutputTokens
		usage.TotalTokens = reported.TotalTokens
	} else {
		usage.InputTokens = EstimateTokens(promptText)
		usage.OutputTokens = EstimateTokens(completion)
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}

	if model.InputPricePer1K <= 0 && model.OutputPricePer1K <= 0 {
		logger.Warn(ctx, "模型缺少单价配置，本次费用按零计",
			"model", model.ModelID,
		)
		return usage
	}

	usage.Cost = float64(usage.InputTokens)/1000*model.InputPricePer1K +
		float64(usage.OutputTokens)/1000*model.OutputPricePer1K
	return usage
}
