package llm

import (
	"context"
	"errors"
	"testing"

	apperrors "z-llm-chat-api/pkg/errors"
)

// stubProvider 测试用提供商
type stubProvider struct {
	name      string
	events    []StreamEvent
	streamErr error
	chatResp  *ChatResponse
	chatErr   error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Chat(_ context.Context, _ *ChatRequest) (*ChatResponse, error) {
	return s.chatResp, s.chatErr
}

func (s *stubProvider) ChatStream(_ context.Context, _ *ChatRequest) (<-chan StreamEvent, error) {
	if s.streamErr != nil {
		return nil, s.streamErr
	}
	ch := make(chan StreamEvent, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func TestManager_SelectByName(t *testing.T) {
	a := &stubProvider{name: "alpha"}
	b := &stubProvider{name: "beta"}
	m := NewManagerWithProviders("alpha", nil, a, b)

	p, err := m.Select("beta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "beta" {
		t.Errorf("selected %q, want beta", p.Name())
	}
}

func TestManager_SelectFallsBackToDefault(t *testing.T) {
	a := &stubProvider{name: "alpha"}
	m := NewManagerWithProviders("alpha", nil, a)

	p, err := m.Select("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "alpha" {
		t.Errorf("selected %q, want alpha", p.Name())
	}
}

func TestManager_SelectFallbackChain(t *testing.T) {
	b := &stubProvider{name: "beta"}
	m := NewManagerWithProviders("alpha", []string{"gamma", "beta"}, b)

	p, err := m.Select("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "beta" {
		t.Errorf("selected %q, want beta", p.Name())
	}
}

func TestManager_SelectNoneConfigured(t *testing.T) {
	m := NewManagerWithProviders("alpha", nil)

	if _, err := m.Select("anything"); !errors.Is(err, apperrors.ErrNoProviderAvailable) {
		t.Errorf("err = %v, want ErrNoProviderAvailable", err)
	}
}

func TestManager_ChatStreamConvertsSetupFailure(t *testing.T) {
	p := &stubProvider{name: "alpha", streamErr: errors.New("connection refused")}
	m := NewManagerWithProviders("alpha", nil, p)

	events, name, err := m.ChatStream(context.Background(), "alpha", &ChatRequest{})
	if err != nil {
		t.Fatalf("setup failure should surface as a stream event, got err: %v", err)
	}
	if name != "alpha" {
		t.Errorf("provider name = %q", name)
	}

	got := collectEvents(t, events)
	if len(got) != 1 || got[0].Type != EventError {
		t.Fatalf("got %+v, want a single terminal error event", got)
	}
}

func TestManager_ChatStreamRelaysEvents(t *testing.T) {
	p := &stubProvider{
		name: "alpha",
		events: []StreamEvent{
			{Type: EventContent, Delta: "hi"},
			{Type: EventDone},
		},
	}
	m := NewManagerWithProviders("alpha", nil, p)

	events, _, err := m.ChatStream(context.Background(), "alpha", &ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collectEvents(t, events)
	if len(got) != 2 || got[0].Delta != "hi" || got[1].Type != EventDone {
		t.Fatalf("got %+v", got)
	}
}
