package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"z-llm-chat-api/internal/config"
	apperrors "z-llm-chat-api/pkg/errors"
	"z-llm-chat-api/pkg/logger"
	"z-llm-chat-api/pkg/metrics"
)

var tracer = otel.Tracer("llm")

// Manager 提供商管理器。按名称选择适配器，未命中时按回退链兜底，
// 对调用方屏蔽具体上游的差异。
type Manager struct {
	providers     map[string]Provider
	defaultName   string
	fallbackChain []string
}

// NewManager 根据配置构建管理器，只注册配置了 API Key 的提供商
func NewManager(cfg *config.LLMConfig) *Manager {
	m := &Manager{
		providers:     make(map[string]Provider),
		defaultName:   cfg.DefaultProvider,
		fallbackChain: cfg.FallbackChain,
	}

	if pc, ok := cfg.Providers[ProviderOpenRouter]; ok && pc.APIKey != "" {
		m.providers[ProviderOpenRouter] = NewOpenRouterProvider(pc)
	}
	if pc, ok := cfg.Providers[ProviderGemini]; ok && pc.APIKey != "" {
		m.providers[ProviderGemini] = NewGeminiProvider(pc)
	}

	return m
}

// NewManagerWithProviders 直接注入提供商，供测试使用
func NewManagerWithProviders(defaultName string, fallbackChain []string, providers ...Provider) *Manager {
	m := &Manager{
		providers:     make(map[string]Provider),
		defaultName:   defaultName,
		fallbackChain: fallbackChain,
	}
	for _, p := range providers {
		m.providers[p.Name()] = p
	}
	return m
}

// Providers 返回已注册的提供商名称
func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	return names
}

// Select 选择提供商：优先精确匹配，其次默认提供商，再按回退链，
// 最后使用任意一个已配置的提供商
func (m *Manager) Select(name string) (Provider, error) {
	if p, ok := m.providers[name]; ok {
		return p, nil
	}
	if p, ok := m.providers[m.defaultName]; ok {
		return p, nil
	}
	for _, fallback := range m.fallbackChain {
		if p, ok := m.providers[fallback]; ok {
			return p, nil
		}
	}
	for _, p := range m.providers {
		return p, nil
	}
	return nil, apperrors.ErrNoProviderAvailable
}

// Chat 非流式调用
func (m *Manager) Chat(ctx context.Context, providerName string, req *ChatRequest) (*ChatResponse, string, error) {
	ctx, span := tracer.Start(ctx, "manager.Chat")
	defer span.End()

	p, err := m.Select(providerName)
	if err != nil {
		return nil, "", err
	}
	span.SetAttributes(
		attribute.String("llm.provider", p.Name()),
		attribute.String("llm.model", req.Model),
	)

	start := time.Now()
	resp, err := p.Chat(ctx, req)
	metrics.LLMCallDuration.WithLabelValues(p.Name(), req.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(p.Name(), req.Model, "error").Inc()
		span.RecordError(err)
		return nil, p.Name(), apperrors.Wrap(err, apperrors.CodeLLMProviderError, "llm call failed")
	}
	metrics.LLMCallTotal.WithLabelValues(p.Name(), req.Model, "ok").Inc()
	return resp, p.Name(), nil
}

// ChatStream 流式调用。适配器的同步建连失败被转换为流上的
// 终止 error 事件，调用方只需要处理事件流这一条失败通道。
func (m *Manager) ChatStream(ctx context.Context, providerName string, req *ChatRequest) (<-chan StreamEvent, string, error) {
	ctx, span := tracer.Start(ctx, "manager.ChatStream")
	defer span.End()

	p, err := m.Select(providerName)
	if err != nil {
		return nil, "", err
	}
	span.SetAttributes(
		attribute.String("llm.provider", p.Name()),
		attribute.String("llm.model", req.Model),
	)

	events, err := p.ChatStream(ctx, req)
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(p.Name(), req.Model, "error").Inc()
		span.RecordError(err)
		logger.Error(ctx, "上游建连失败", err, "provider", p.Name())

		failed := make(chan StreamEvent, 1)
		failed <- StreamEvent{
			Type: EventError,
			Err:  apperrors.Wrap(err, apperrors.CodeUpstreamStream, "failed to open upstream stream"),
		}
		close(failed)
		return failed, p.Name(), nil
	}

	metrics.LLMCallTotal.WithLabelValues(p.Name(), req.Model, "ok").Inc()
	return events, p.Name(), nil
}
