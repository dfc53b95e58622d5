package llm

import (
	"testing"
)

func TestFrameScanner_SingleObject(t *testing.T) {
	s := NewFrameScanner()

	frames := s.Push([]byte(`{"text":"hello"}`))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if got := string(frames[0]); got != `{"text":"hello"}` {
		t.Errorf("frame = %q", got)
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d, want 0", s.Pending())
	}
}

func TestFrameScanner_BackToBackObjects(t *testing.T) {
	s := NewFrameScanner()

	frames := s.Push([]byte(`{"a":1}{"b":2}{"c":3}`))
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	want := []string{`{"a":1}`, `{"b":2}`, `{"c":3}`}
	for i, f := range frames {
		if string(f) != want[i] {
			t.Errorf("frame %d = %q, want %q", i, f, want[i])
		}
	}
}

// 对象序列化结果在每一个可能的字节偏移处切成两段，
// 扫描器都必须恰好恢复一次且逐字节一致。
func TestFrameScanner_EverySplitOffset(t *testing.T) {
	payload := []byte(`{"candidates":[{"content":{"parts":[{"text":"a { b } \" c \\"}]},"finishReason":"STOP"}]}`)

	for cut := 0; cut <= len(payload); cut++ {
		s := NewFrameScanner()
		var frames [][]byte
		frames = append(frames, s.Push(payload[:cut])...)
		frames = append(frames, s.Push(payload[cut:])...)

		if len(frames) != 1 {
			t.Fatalf("cut=%d: got %d frames, want 1", cut, len(frames))
		}
		if string(frames[0]) != string(payload) {
			t.Fatalf("cut=%d: frame = %q", cut, frames[0])
		}
	}
}

func TestFrameScanner_BracesInsideStrings(t *testing.T) {
	s := NewFrameScanner()

	frames := s.Push([]byte(`{"text":"a { b } c"}`))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if got := string(frames[0]); got != `{"text":"a { b } c"}` {
		t.Errorf("frame = %q", got)
	}
}

func TestFrameScanner_EscapedQuotesAndBackslashes(t *testing.T) {
	s := NewFrameScanner()

	// 转义引号不结束字符串，转义反斜杠不转义后续引号
	input := `{"text":"say \"hi\" \\"}{"next":true}`
	frames := s.Push([]byte(input))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if got := string(frames[0]); got != `{"text":"say \"hi\" \\"}` {
		t.Errorf("frame 0 = %q", got)
	}
}

func TestFrameScanner_NestedObjects(t *testing.T) {
	s := NewFrameScanner()

	frames := s.Push([]byte(`{"outer":{"inner":{"deep":1}}}`))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
}

func TestFrameScanner_IgnoresArrayPunctuation(t *testing.T) {
	s := NewFrameScanner()

	// 上游以 JSON 数组形式分片返回时，对象之间夹杂括号和逗号
	frames := s.Push([]byte("[{\"a\":1},\n{\"b\":2}]"))
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if string(frames[0]) != `{"a":1}` || string(frames[1]) != `{"b":2}` {
		t.Errorf("frames = %q, %q", frames[0], frames[1])
	}
}

func TestFrameScanner_IncompleteTrailingObject(t *testing.T) {
	s := NewFrameScanner()

	frames := s.Push([]byte(`{"a":1}{"b":`))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if s.Pending() == 0 {
		t.Error("incomplete trailing object should remain buffered")
	}

	frames = s.Push([]byte(`2}`))
	if len(frames) != 1 {
		t.Fatalf("got %d frames after completion, want 1", len(frames))
	}
	if string(frames[0]) != `{"b":2}` {
		t.Errorf("frame = %q", frames[0])
	}
}

func TestFrameScanner_MultiByteUTF8AcrossBoundary(t *testing.T) {
	payload := []byte(`{"text":"你好，世界"}`)

	// 在多字节序列中间切断
	for cut := 0; cut <= len(payload); cut++ {
		s := NewFrameScanner()
		var frames [][]byte
		frames = append(frames, s.Push(payload[:cut])...)
		frames = append(frames, s.Push(payload[cut:])...)

		if len(frames) != 1 || string(frames[0]) != string(payload) {
			t.Fatalf("cut=%d: frames = %v", cut, frames)
		}
	}
}
