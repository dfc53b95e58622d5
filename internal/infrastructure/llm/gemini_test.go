package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"z-llm-chat-api/internal/config"
)

func TestClassifyFrame(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind frameKind
		wantText string
	}{
		{
			name:     "incremental delta",
			raw:      `{"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`,
			wantKind: frameDelta,
			wantText: "Hel",
		},
		{
			name:     "complete response with stop",
			raw:      `{"candidates":[{"content":{"parts":[{"text":"Hi there"}]},"finishReason":"STOP"}]}`,
			wantKind: frameDeltaDone,
			wantText: "Hi there",
		},
		{
			name:     "bare stop",
			raw:      `{"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}]}`,
			wantKind: frameDone,
		},
		{
			name:     "max tokens is terminal",
			raw:      `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`,
			wantKind: frameDone,
		},
		{
			name:     "no candidates",
			raw:      `{"candidates":[]}`,
			wantKind: frameEmpty,
		},
		{
			name:     "multiple parts concatenated",
			raw:      `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`,
			wantKind: frameDelta,
			wantText: "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifyFrame([]byte(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.kind != tt.wantKind {
				t.Errorf("kind = %d, want %d", got.kind, tt.wantKind)
			}
			if got.text != tt.wantText {
				t.Errorf("text = %q, want %q", got.text, tt.wantText)
			}
		})
	}
}

func TestClassifyFrame_Usage(t *testing.T) {
	raw := `{"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":20,"totalTokenCount":30}}`
	got, err := classifyFrame([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.usage == nil {
		t.Fatal("usage should be parsed")
	}
	if got.usage.InputTokens != 10 || got.usage.OutputTokens != 20 || got.usage.TotalTokens != 30 {
		t.Errorf("usage = %+v", got.usage)
	}
}

func TestClassifyFrame_Malformed(t *testing.T) {
	if _, err := classifyFrame([]byte(`{"candidates":`)); err == nil {
		t.Error("malformed frame should return an error")
	}
}

func TestSplitWhitespaceTokens(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Hi there", []string{"Hi", " there"}},
		{"one two three", []string{"one", " two", " three"}},
		{"single", []string{"single"}},
		{"", nil},
		{"a  b", []string{"a", "  b"}},
		{" leading", []string{" leading"}},
	}

	for _, tt := range tests {
		got := splitWhitespaceTokens(tt.text)
		if len(got) != len(tt.want) {
			t.Errorf("splitWhitespaceTokens(%q) = %v, want %v", tt.text, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitWhitespaceTokens(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
			}
		}
		// 片段拼接必须还原原文
		if strings.Join(got, "") != tt.text {
			t.Errorf("tokens of %q do not reassemble the original", tt.text)
		}
	}
}

func newGeminiTestProvider(serverURL string) *GeminiProvider {
	return NewGeminiProvider(config.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "gemini-test",
		Timeout: 5 * time.Second,
	})
}

func collectEvents(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var got []StreamEvent
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func TestGeminiProvider_StreamSingleCompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi there"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	p := newGeminiTestProvider(server.URL)
	events, err := p.ChatStream(context.Background(), &ChatRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collectEvents(t, events)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(got), got)
	}
	if got[0].Type != EventContent || got[0].Delta != "Hi" {
		t.Errorf("event 0 = %+v, want content delta %q", got[0], "Hi")
	}
	if got[1].Type != EventContent || got[1].Delta != " there" {
		t.Errorf("event 1 = %+v, want content delta %q", got[1], " there")
	}
	if got[2].Type != EventDone {
		t.Errorf("event 2 = %+v, want done", got[2])
	}
}

func TestGeminiProvider_StreamIncrementalFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`))
		flusher.Flush()
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"lo"}]}}]}`))
		flusher.Flush()
		w.Write([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	p := newGeminiTestProvider(server.URL)
	events, err := p.ChatStream(context.Background(), &ChatRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collectEvents(t, events)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(got), got)
	}
	if got[0].Delta != "Hel" || got[1].Delta != "lo" {
		t.Errorf("deltas = %q, %q", got[0].Delta, got[1].Delta)
	}
	if got[2].Type != EventDone {
		t.Errorf("last event = %+v, want done", got[2])
	}
}

func TestGeminiProvider_StreamNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	p := newGeminiTestProvider(server.URL)
	events, err := p.ChatStream(context.Background(), &ChatRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collectEvents(t, events)
	if len(got) != 1 || got[0].Type != EventError {
		t.Fatalf("got %+v, want a single error event", got)
	}
}

func TestGeminiProvider_StreamUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := newGeminiTestProvider(server.URL)
	_, err := p.ChatStream(context.Background(), &ChatRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hello"}},
	})
	if err == nil {
		t.Fatal("non-200 upstream should fail stream setup")
	}
}

func TestGeminiProvider_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"4"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":1,"totalTokenCount":6}}`))
	}))
	defer server.Close()

	p := newGeminiTestProvider(server.URL)
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "2+2?"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "4" {
		t.Errorf("content = %q, want %q", resp.Content, "4")
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 6 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}
