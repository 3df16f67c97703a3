package splitter

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name         string
		chunkSize    int
		chunkOverlap int
		wantErr      bool
	}{
		{"valid", 1000, 200, false},
		{"zero overlap is valid", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative size", -1, 0, true},
		{"overlap equals size", 100, 100, true},
		{"overlap exceeds size", 100, 150, true},
		{"negative overlap", 100, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.chunkSize, tt.chunkOverlap)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %d) error = %v, wantErr %v", tt.chunkSize, tt.chunkOverlap, err, tt.wantErr)
			}
		})
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	s, _ := New(100, 20)
	if got := s.Split(""); len(got) != 0 {
		t.Errorf("expected empty sequence, got %d chunks", len(got))
	}
}

func TestSplit_ShortInputIsSingleChunk(t *testing.T) {
	s, _ := New(100, 20)
	text := "short document"
	got := s.Split(text)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", len(got))
	}
	if got[0] != text {
		t.Errorf("chunk must equal the whole input, got %q", got[0])
	}
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	s, _ := New(50, 10)
	text := strings.Repeat("word one two three. ", 30)
	for i, c := range s.Split(text) {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk %d has %d runes, exceeds chunk size", i, n)
		}
	}
}

func TestSplit_CarryOverNeverOversizesNextChunk(t *testing.T) {
	// 小片段后紧跟一个接近 chunkSize 的片段：发出首个窗口后，
	// 保留的重叠尾部加新片段不得超过 chunkSize
	s, _ := New(50, 10)
	text := "abcdefgh\n\n" + strings.Repeat("x", 48)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk %d has %d runes, exceeds chunk size", i, n)
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s, _ := New(40, 0)
	text := "first paragraph here.\n\nsecond paragraph here.\n\nthird paragraph here."
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// 段落边界切分时，每个分块都应是原文的连续子串
	for i, c := range chunks {
		if !strings.Contains(text, c) {
			t.Errorf("chunk %d is not a contiguous slice of the input: %q", i, c)
		}
	}
}

func TestSplit_OrderMatchesReadingOrder(t *testing.T) {
	s, _ := New(30, 5)
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo lima"
	chunks := s.Split(text)
	pos := -1
	for i, c := range chunks {
		idx := strings.Index(text, strings.TrimSpace(c))
		if idx < 0 {
			t.Fatalf("chunk %d not found in input: %q", i, c)
		}
		if idx <= pos {
			t.Errorf("chunk %d breaks reading order (index %d after %d)", i, idx, pos)
		}
		pos = idx
	}
}

func TestSplit_HardSplitOverlap(t *testing.T) {
	// 无任何分隔符的输入走按字符硬切路径
	s, _ := New(10, 4)
	text := strings.Repeat("a", 9) + strings.Repeat("b", 9) + strings.Repeat("c", 9)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-4:])
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not overlap previous tail %q: %q", i, tail, chunks[i])
		}
	}
}
