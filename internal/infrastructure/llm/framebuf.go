package llm

// FrameScanner 从无分隔符的字节流中恢复完整的顶层 JSON 对象。
// 上游的对象可能在任意字节处被切断，扫描器缓存未完成的尾部，
// 等待后续数据补齐。UTF-8 多字节序列的字节均大于 0x7F，
// 不会与结构字符混淆，按字节扫描是安全的。
type FrameScanner struct {
	buf []byte
}

// NewFrameScanner 创建帧扫描器
func NewFrameScanner() *FrameScanner {
	return &FrameScanner{}
}

// Push 追加新到达的数据，返回其中所有新凑齐的完整 JSON 对象。
// 每提取一帧后从剩余缓冲区头部重新扫描。
func (s *FrameScanner) Push(data []byte) [][]byte {
	s.buf = append(s.buf, data...)

	var frames [][]byte
	for {
		frame, rest, ok := scanFrame(s.buf)
		if !ok {
			break
		}
		frames = append(frames, frame)
		s.buf = rest
	}
	return frames
}

// Pending 返回缓冲区中尚未凑齐的字节数
func (s *FrameScanner) Pending() int {
	return len(s.buf)
}

// scanFrame 扫描出第一个完整的顶层对象。
// 找到时返回该对象、对象之后的剩余字节和 true，
// 对象之前的字节（数组括号、逗号、空白）被丢弃。
func scanFrame(buf []byte) (frame, rest []byte, ok bool) {
	depth := 0
	inString := false
	escaped := false
	start := -1

	for i := 0; i < len(buf); i++ {
		c := buf[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				if depth == 0 {
					start = i
				}
				depth++
			}
		case '}':
			if !inString && depth > 0 {
				depth--
				if depth == 0 {
					frame = append([]byte(nil), buf[start:i+1]...)
					rest = append([]byte(nil), buf[i+1:]...)
					return frame, rest, true
				}
			}
		}
	}
	return nil, buf, false
}
