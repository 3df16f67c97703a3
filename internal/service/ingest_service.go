// Package service 包含了应用的核心业务逻辑。
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/loader"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/repository"
	"rag-chat-go/internal/splitter"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/vectorstore"
)

// IngestService 定义了文档摄取管道的接口。
// 管道内部的失败不抛出原始错误，而是转换为 Success=false 的结构化结果。
type IngestService interface {
	// IngestText 摄取一段原始文本，filename 为空时使用默认来源名。
	IngestText(ctx context.Context, textContent, filename string) *model.IngestResult
	// IngestFile 摄取一个文件。类型与大小的前置校验发生在任何解析与网关调用之前。
	IngestFile(ctx context.Context, content []byte, filename string) *model.IngestResult
}

type ingestService struct {
	splitter  *splitter.Splitter
	loader    *loader.Loader
	embedder  embedding.Client
	store     vectorstore.Store
	docRepo   repository.DocumentRepository
	uploadCfg config.UploadConfig
}

// NewIngestService 创建一个新的 IngestService 实例。
func NewIngestService(
	sp *splitter.Splitter,
	ld *loader.Loader,
	embedder embedding.Client,
	store vectorstore.Store,
	docRepo repository.DocumentRepository,
	uploadCfg config.UploadConfig,
) IngestService {
	return &ingestService{
		splitter:  sp,
		loader:    ld,
		embedder:  embedder,
		store:     store,
		docRepo:   docRepo,
		uploadCfg: uploadCfg,
	}
}

func failure(filename, message string) *model.IngestResult {
	return &model.IngestResult{
		Success:  false,
		Message:  message,
		Filename: filename,
	}
}

// IngestText 摄取原始文本。空白文本在任何网关调用之前被拒绝。
func (s *ingestService) IngestText(ctx context.Context, textContent, filename string) *model.IngestResult {
	if filename == "" {
		filename = "text_input"
	}
	log.Infof("[IngestService] 步骤1: 接收文本摄取请求, filename: %s, 长度: %d", filename, len(textContent))

	if strings.TrimSpace(textContent) == "" {
		return failure(filename, "文本内容为空")
	}

	return s.ingest(ctx, textContent, filename, ".txt", int64(len(textContent)))
}

// IngestFile 摄取一个文件。前置校验（类型、大小）失败时不触碰任何下游网关。
func (s *ingestService) IngestFile(ctx context.Context, content []byte, filename string) *model.IngestResult {
	log.Infof("[IngestService] 步骤1: 接收文件摄取请求, filename: %s, 大小: %d", filename, len(content))

	ext := strings.ToLower(filepath.Ext(filename))
	if !s.extAllowed(ext) {
		return failure(filename, fmt.Sprintf("不支持的文件类型: %s, 允许的类型: %s",
			ext, strings.Join(s.uploadCfg.AllowedFileTypes, ", ")))
	}
	if int64(len(content)) > s.uploadCfg.MaxFileSize {
		return failure(filename, fmt.Sprintf("文件过大: %d 字节, 上限: %d 字节",
			len(content), s.uploadCfg.MaxFileSize))
	}

	text, err := s.loader.LoadBytes(ctx, content, filename)
	if err != nil {
		log.Errorf("[IngestService] 提取文件文本失败: %v", err)
		return failure(filename, fmt.Sprintf("提取文件文本失败: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return failure(filename, "文件中没有可用的文本内容")
	}

	return s.ingest(ctx, text, filename, ext, int64(len(content)))
}

// ingest 是文本与文件摄取共享的尾段：切分、批量向量化、写入向量库并登记。
func (s *ingestService) ingest(ctx context.Context, text, filename, fileType string, fileSize int64) *model.IngestResult {
	pieces := s.splitter.Split(text)
	if len(pieces) == 0 {
		return failure(filename, "切分后没有可用的分块")
	}
	log.Infof("[IngestService] 步骤2: 文本切分完成, 共 %d 个分块", len(pieces))

	now := time.Now()
	chunks := make([]model.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = model.Chunk{
			Content:        piece,
			SourceFilename: filename,
			ChunkIndex:     i,
			FileType:       fileType,
			CreatedAt:      now,
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		log.Errorf("[IngestService] 向量化失败: %v", err)
		return failure(filename, fmt.Sprintf("向量化失败: %v", err))
	}
	log.Infof("[IngestService] 步骤3: 向量化完成, 共 %d 个向量", len(vectors))

	records := make([]model.StoredRecord, len(chunks))
	for i := range chunks {
		records[i] = model.StoredRecord{Chunk: chunks[i], Vector: vectors[i]}
	}
	ids, err := s.store.Insert(ctx, records)
	if err != nil {
		// 逐条写入不是事务：此前成功的记录保持已持久化，结果按失败上报
		log.Errorf("[IngestService] 写入向量库失败(已写入 %d 条): %v", len(ids), err)
		return failure(filename, fmt.Sprintf("写入向量库失败: %v", err))
	}
	log.Infof("[IngestService] 步骤4: 写入向量库完成, 共 %d 条记录", len(ids))

	record := &model.DocumentRecord{
		Filename:   filename,
		FileType:   fileType,
		FileSize:   fileSize,
		ChunkCount: len(chunks),
	}
	if err := s.docRepo.Create(record); err != nil {
		// 登记表只是辅助清单，登记失败不回滚已入库的向量
		log.Warnf("[IngestService] 登记文档记录失败: %v", err)
	}

	return &model.IngestResult{
		Success:       true,
		Message:       fmt.Sprintf("成功摄取 %d 个分块", len(chunks)),
		Filename:      filename,
		ChunksCreated: len(chunks),
		FileSize:      fileSize,
		DocumentIDs:   ids,
	}
}

func (s *ingestService) extAllowed(ext string) bool {
	for _, allowed := range s.uploadCfg.AllowedFileTypes {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
