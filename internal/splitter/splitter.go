// Package splitter 实现递归字符切分：优先在段落、行、词边界断开，
// 无法满足块大小限制时逐级降级，最终退化为按字符硬切。
package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// 递归切分使用的边界序列，从语义最强到最弱。空串表示按字符硬切。
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter 将长文本切分为带重叠的窗口。chunkSize 与 chunkOverlap 以字符（rune）计。
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New 创建一个 Splitter。参数非法属于配置错误，在启动阶段拒绝而不是调用时失败。
func New(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size 必须大于 0, 当前为 %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk_overlap 必须满足 0 <= overlap < chunk_size, 当前为 %d/%d",
			chunkOverlap, chunkSize)
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}, nil
}

// Split 将文本切分为顺序稳定的内容窗口。
// 空输入产生空序列；不超过 chunkSize 的输入原样返回单个分块。
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}
	chunks := s.split(text, s.separators)
	// 滤掉纯空白的窗口，持久化的分块内容必须非空
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	sep, rest := pickSeparator(text, separators)
	if sep == "" {
		return s.hardSplit(text)
	}

	pieces := splitKeepSeparator(text, sep)
	var final []string
	var good []string
	for _, piece := range pieces {
		if utf8.RuneCountInString(piece) <= s.chunkSize {
			good = append(good, piece)
			continue
		}
		// 当前片段超限：先合并已有的合格片段，再用更弱的边界递归处理它
		final = append(final, s.merge(good)...)
		good = nil
		final = append(final, s.split(piece, rest)...)
	}
	final = append(final, s.merge(good)...)
	return final
}

// merge 将不超限的片段贪心合并为窗口，并在发出一个窗口后
// 保留总长不超过 chunkOverlap 的尾部片段，用作下一窗口的上下文重叠。
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var cur []string
	total := 0
	for _, p := range pieces {
		pl := utf8.RuneCountInString(p)
		if total+pl > s.chunkSize && len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, ""))
			// 保留的尾部不仅要不超过 chunkOverlap，加上新片段后也不能超过 chunkSize
			for len(cur) > 0 && (total > s.chunkOverlap || total+pl > s.chunkSize) {
				total -= utf8.RuneCountInString(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += pl
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, ""))
	}
	return chunks
}

// hardSplit 按固定窗口切分，相邻窗口重叠 chunkOverlap 个字符。
func (s *Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var chunks []string
	step := s.chunkSize - s.chunkOverlap
	for i := 0; i < len(runes); i += step {
		end := i + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// pickSeparator 返回第一个在文本中出现的边界以及它之后剩余的候选序列。
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitKeepSeparator 按边界切分并把边界保留在前一个片段末尾，拼回即可还原原文。
func splitKeepSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}
