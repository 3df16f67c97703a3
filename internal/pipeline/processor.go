// Package pipeline 把异步摄取任务接到摄取服务上，由 Kafka 消费者驱动。
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/service"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
	"rag-chat-go/pkg/tasks"
)

// Processor 处理来自 Kafka 的摄取任务：从对象存储取回原件后走摄取管道。
type Processor struct {
	minioCfg      config.MinIOConfig
	ingestService service.IngestService
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(minioCfg config.MinIOConfig, ingestService service.IngestService) *Processor {
	return &Processor{minioCfg: minioCfg, ingestService: ingestService}
}

// Process 执行一个摄取任务。返回错误时由消费者按重试策略处理。
func (p *Processor) Process(ctx context.Context, task tasks.IngestTask) error {
	content, err := storage.GetObjectBytes(ctx, p.minioCfg.BucketName, task.ObjectName)
	if err != nil {
		return fmt.Errorf("从对象存储取回 %s 失败: %w", task.ObjectName, err)
	}
	if len(content) == 0 {
		return errors.New("对象内容为空: " + task.ObjectName)
	}

	result := p.ingestService.IngestFile(ctx, content, task.Filename)
	if !result.Success {
		return errors.New(result.Message)
	}
	log.Infof("[Pipeline] 异步摄取完成: %s, 分块数: %d", task.Filename, result.ChunksCreated)
	return nil
}
