package chat

import (
	"context"
	"math"
	"testing"

	"z-llm-chat-api/internal/domain/entity"
	"z-llm-chat-api/internal/infrastructure/llm"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"12345678", 2},
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestComputeUsage_ProviderCountsWin(t *testing.T) {
	model := &entity.LLMModel{
		ModelID:          "test-model",
		Provider:         "openrouter",
		InputPricePer1K:  0.5,
		OutputPricePer1K: 1.5,
	}
	reported := &llm.Usage{InputTokens: 100, OutputTokens: 200, TotalTokens: 300}

	got := ComputeUsage(context.Background(), reported, "prompt", "completion", model)
	if got.InputTokens != 100 || got.OutputTokens != 200 || got.TotalTokens != 300 {
		t.Errorf("usage = %+v, provider counts should win", got)
	}

	wantCost := 100.0/1000*0.5 + 200.0/1000*1.5
	if math.Abs(got.Cost-wantCost) > 1e-9 {
		t.Errorf("cost = %f, want %f", got.Cost, wantCost)
	}
}

func TestComputeUsage_EstimatesWhenNotReported(t *testing.T) {
	model := &entity.LLMModel{
		ModelID:          "test-model",
		Provider:         "gemini",
		InputPricePer1K:  1,
		OutputPricePer1K: 1,
	}

	prompt := "12345678" // 2 tokens
	completion := "abcd" // 1 token
	got := ComputeUsage(context.Background(), nil, prompt, completion, model)

	if got.InputTokens != 2 || got.OutputTokens != 1 {
		t.Errorf("usage = %+v, want estimated 2/1", got)
	}
	if got.TotalTokens != got.InputTokens+got.OutputTokens {
		t.Errorf("total = %d, want sum of parts", got.TotalTokens)
	}
}

func TestComputeUsage_MissingPriceYieldsZeroCost(t *testing.T) {
	model := &entity.LLMModel{ModelID: "free-model", Provider: "openrouter"}
	reported := &llm.Usage{InputTokens: 10, OutputTokens: 10, TotalTokens: 20}

	got := ComputeUsage(context.Background(), reported, "p", "c", model)
	if got.Cost != 0 {
		t.Errorf("cost = %f, want 0 for unpriced model", got.Cost)
	}
	if got.TotalTokens != 20 {
		t.Errorf("token counts should still be recorded, got %+v", got)
	}
}
