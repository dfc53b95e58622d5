package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"z-llm-chat-api/internal/config"
	"z-llm-chat-api/pkg/logger"
)

// ProviderOpenRouter OpenRouter 提供商名称
const ProviderOpenRouter = "openrouter"

// sseDoneSentinel SSE 流结束哨兵
const sseDoneSentinel = "[DONE]"

// OpenRouterProvider OpenRouter 适配器。
// 上游以 SSE 格式返回，每行形如 "data: <json>"，以 "data: [DONE]" 结束。
type OpenRouterProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenRouterProvider 创建 OpenRouter 适配器
func NewOpenRouterProvider(cfg config.ProviderConfig) *OpenRouterProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OpenRouterProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *OpenRouterProvider) Name() string {
	return ProviderOpenRouter
}

// Configured 是否已配置 API Key
func (p *OpenRouterProvider) Configured() bool {
	return p.apiKey != ""
}

// openRouterRequest 上游请求体
type openRouterRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// openRouterChunk 流式响应的单个 SSE 数据块
type openRouterChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *openRouterUsage `json:"usage"`
}

// openRouterResponse 非流式完整响应
type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *openRouterUsage `json:"usage"`
}

type openRouterUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *openRouterUsage) toUsage() *Usage {
	if u == nil {
		return nil
	}
	return &Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func (p *OpenRouterProvider) newRequest(ctx context.Context, body *openRouterRequest) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	return req, nil
}

// Chat 非流式调用
func (p *OpenRouterProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	httpReq, err := p.newRequest(ctx, &openRouterRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Stream:      false,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openrouter returned status %d: %s", resp.StatusCode, body)
	}

	var parsed openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("openrouter returned no choices")
	}

	return &ChatResponse{
		Content: parsed.Choices[0].Message.Content,
		Usage:   parsed.Usage.toUsage(),
	}, nil
}

// ChatStream 流式调用，逐行解析 SSE 并转换为标准事件
func (p *OpenRouterProvider) ChatStream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	httpReq, err := p.newRequest(ctx, &openRouterRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Stream:      true,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("openrouter returned status %d: %s", resp.StatusCode, body)
	}

	events := make(chan StreamEvent)
	go p.readStream(ctx, resp.Body, events)
	return events, nil
}

func (p *OpenRouterProvider) readStream(ctx context.Context, body io.ReadCloser, events chan<- StreamEvent) {
	defer close(events)
	defer body.Close()

	var usage *Usage
	reader := bufio.NewReader(body)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// 上游未发送 [DONE] 直接断流
				p.emit(ctx, events, StreamEvent{Type: EventDone, Usage: usage})
			} else if ctx.Err() == nil {
				p.emit(ctx, events, StreamEvent{
					Type: EventError,
					Err:  fmt.Errorf("failed to read stream: %w", err),
				})
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == sseDoneSentinel {
			p.emit(ctx, events, StreamEvent{Type: EventDone, Usage: usage})
			return
		}

		var chunk openRouterChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// 单行解析失败跳过，不中断整条流
			logger.Warn(ctx, "跳过无法解析的 SSE 数据行", "error", err)
			continue
		}

		if chunk.Usage != nil {
			usage = chunk.Usage.toUsage()
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if !p.emit(ctx, events, StreamEvent{
				Type:  EventContent,
				Delta: chunk.Choices[0].Delta.Content,
			}) {
				return
			}
		}
	}
}

// emit 发送事件，context 取消时返回 false
func (p *OpenRouterProvider) emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
