// Package loader 按文件类型选择加载器，把二进制文档内容转成纯文本。
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"rag-chat-go/internal/errs"
)

// TextExtractor 抽象二进制格式（PDF、DOCX）的文本抽取能力，由 Tika 客户端实现。
type TextExtractor interface {
	ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error)
}

// Loader 根据扩展名分派：纯文本格式本地读取，二进制格式交给抽取服务。
type Loader struct {
	extractor TextExtractor
}

// New 创建一个 Loader。
func New(extractor TextExtractor) *Loader {
	return &Loader{extractor: extractor}
}

// LoadBytes 将文件内容加载为纯文本。
// 不支持的扩展名在任何抽取调用之前被拒绝，返回前置条件错误。
func (l *Loader) LoadBytes(ctx context.Context, content []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".text", ".md":
		return string(content), nil
	case ".pdf", ".docx":
		text, err := l.extractor.ExtractText(ctx, bytes.NewReader(content), filename)
		if err != nil {
			return "", fmt.Errorf("%w: 提取 %s 文本失败: %v", errs.ErrUpstream, ext, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: 不支持的文件类型 %s", errs.ErrPrecondition, ext)
	}
}
