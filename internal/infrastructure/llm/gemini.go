package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"z-llm-chat-api/internal/config"
	"z-llm-chat-api/pkg/logger"
)

// ProviderGemini Gemini 提供商名称
const ProviderGemini = "gemini"

// GeminiProvider Gemini 适配器。
// 上游返回无分隔符的裸 JSON 对象流，对象可能在任意字节处被切断，
// 也可能整条响应作为一个完整对象一次性到达。
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGeminiProvider 创建 Gemini 适配器
func NewGeminiProvider(cfg config.ProviderConfig) *GeminiProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &GeminiProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

// Configured 是否已配置 API Key
func (p *GeminiProvider) Configured() bool {
	return p.apiKey != ""
}

// geminiRequest 上游请求体
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenCfg struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// geminiFrame 上游返回的单个 JSON 对象
type geminiFrame struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// frameKind 帧分类结果
type frameKind int

const (
	// frameEmpty 无内容也无终止信息
	frameEmpty frameKind = iota
	// frameDelta 携带增量文本
	frameDelta
	// frameDeltaDone 携带增量文本且宣告终止
	frameDeltaDone
	// frameDone 仅宣告终止
	frameDone
)

// classifiedFrame 归一化后的帧
type classifiedFrame struct {
	kind  frameKind
	text  string
	usage *Usage
}

// classifyFrame 将上游帧归一化为带标签的结构，与传输层解耦。
// finishReason 为 STOP 或 MAX_TOKENS 时视为终止。
func classifyFrame(raw []byte) (classifiedFrame, error) {
	var frame geminiFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return classifiedFrame{}, fmt.Errorf("failed to parse frame: %w", err)
	}

	var out classifiedFrame
	if frame.UsageMetadata != nil {
		out.usage = &Usage{
			InputTokens:  frame.UsageMetadata.PromptTokenCount,
			OutputTokens: frame.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  frame.UsageMetadata.TotalTokenCount,
		}
	}

	if len(frame.Candidates) == 0 {
		return out, nil
	}

	candidate := frame.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	out.text = text.String()

	terminal := candidate.FinishReason == "STOP" || candidate.FinishReason == "MAX_TOKENS"
	switch {
	case out.text != "" && terminal:
		out.kind = frameDeltaDone
	case out.text != "":
		out.kind = frameDelta
	case terminal:
		out.kind = frameDone
	default:
		out.kind = frameEmpty
	}
	return out, nil
}

// splitWhitespaceTokens 按空白切分文本，分隔符归属其后的片段，
// 片段顺序拼接后与原文逐字节一致。
func splitWhitespaceTokens(text string) []string {
	var tokens []string
	var cur strings.Builder
	prevSpace := false

	for _, r := range text {
		isSpace := unicode.IsSpace(r)
		if isSpace && !prevSpace && cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
		prevSpace = isSpace
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func (p *GeminiProvider) resolveModel(model string) string {
	if model != "" {
		return model
	}
	return p.model
}

func (p *GeminiProvider) newRequest(ctx context.Context, req *ChatRequest, stream bool) (*http.Request, error) {
	body := &geminiRequest{}
	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		body.Contents = append(body.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.GenerationConfig = &geminiGenCfg{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	method := "generateContent"
	if stream {
		method = "streamGenerateContent"
	}
	url := fmt.Sprintf("%s/models/%s:%s?key=%s",
		p.baseURL, p.resolveModel(req.Model), method, p.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

// Chat 非流式调用
func (p *GeminiProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	httpReq, err := p.newRequest(ctx, req, false)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	classified, err := classifyFrame(raw)
	if err != nil {
		return nil, err
	}
	if classified.text == "" {
		return nil, errors.New("gemini returned no content")
	}

	return &ChatResponse{
		Content: classified.text,
		Usage:   classified.usage,
	}, nil
}

// ChatStream 流式调用。上游返回整条完整响应而非增量时，
// 将全文按空白切分为片段逐个发出，模拟增量流。
func (p *GeminiProvider) ChatStream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	httpReq, err := p.newRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, body)
	}

	events := make(chan StreamEvent)
	go p.readStream(ctx, resp.Body, events)
	return events, nil
}

func (p *GeminiProvider) readStream(ctx context.Context, body io.ReadCloser, events chan<- StreamEvent) {
	defer close(events)
	defer body.Close()

	scanner := NewFrameScanner()
	emitted := false
	var usage *Usage
	buf := make([]byte, 4096)

	finish := func(ev StreamEvent) {
		p.emit(ctx, events, ev)
	}

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, raw := range scanner.Push(buf[:n]) {
				classified, err := classifyFrame(raw)
				if err != nil {
					// 单帧解析失败跳过，不中断整条流
					logger.Warn(ctx, "跳过无法解析的上游帧", "error", err)
					continue
				}
				if classified.usage != nil {
					usage = classified.usage
				}

				switch classified.kind {
				case frameDelta:
					emitted = true
					if !p.emit(ctx, events, StreamEvent{Type: EventContent, Delta: classified.text}) {
						return
					}
				case frameDeltaDone:
					// 整条响应一次性到达：切分全文模拟增量流
					if !emitted {
						for _, token := range splitWhitespaceTokens(classified.text) {
							if !p.emit(ctx, events, StreamEvent{Type: EventContent, Delta: token}) {
								return
							}
						}
					} else if !p.emit(ctx, events, StreamEvent{Type: EventContent, Delta: classified.text}) {
						return
					}
					emitted = true
					finish(StreamEvent{Type: EventDone, Usage: usage})
					return
				case frameDone:
					if !emitted {
						finish(StreamEvent{Type: EventError, Err: errors.New("gemini stream ended without content")})
						return
					}
					finish(StreamEvent{Type: EventDone, Usage: usage})
					return
				}
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && ctx.Err() == nil {
				finish(StreamEvent{Type: EventError, Err: fmt.Errorf("failed to read stream: %w", readErr)})
				return
			}
			if !emitted {
				finish(StreamEvent{Type: EventError, Err: errors.New("gemini stream ended without content")})
				return
			}
			finish(StreamEvent{Type: EventDone, Usage: usage})
			return
		}
	}
}

// emit 发送事件，context 取消时返回 false
func (p *GeminiProvider) emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
