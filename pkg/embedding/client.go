// Package embedding provides a client for turning text into fixed-length vectors.
package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/errs"
	"rag-chat-go/pkg/log"
)

// Client defines the interface for an embedding client.
// 一次 CreateEmbeddings 调用对调用方而言是原子的：要么整批成功，要么整批失败。
type Client interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type openAIClient struct {
	api   *openai.Client
	model string
}

// NewClient 根据配置创建 Embedding 客户端，支持 Azure OpenAI 与任意 OpenAI 兼容端点。
func NewClient(cfg config.EmbeddingConfig) Client {
	var clientCfg openai.ClientConfig
	if cfg.Provider == "azure" {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}
	return &openAIClient{
		api:   openai.NewClientWithConfig(clientCfg),
		model: cfg.Model,
	}
}

// CreateEmbeddings 为每个输入文本生成一个向量，顺序与数量和输入一致。
func (c *openAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	log.Infof("[EmbeddingClient] 开始调用 Embedding API, model: %s, 批量: %d", c.model, len(texts))

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败: %v", err)
		return nil, fmt.Errorf("%w: 调用 embedding 接口失败: %v", errs.ErrUpstream, err)
	}
	if len(resp.Data) != len(texts) {
		log.Errorf("[EmbeddingClient] 返回向量数量不匹配: 期望 %d, 实际 %d", len(texts), len(resp.Data))
		return nil, fmt.Errorf("%w: embedding 接口返回向量数量不匹配: 期望 %d, 实际 %d",
			errs.ErrUpstream, len(texts), len(resp.Data))
	}

	// 按 Index 归位，接口不保证返回顺序
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embedding 接口返回非法序号 %d", errs.ErrUpstream, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: 第 %d 个输入缺少向量", errs.ErrUpstream, i)
		}
	}

	log.Infof("[EmbeddingClient] 成功获取 %d 个向量, 维度: %d", len(vectors), len(vectors[0]))
	return vectors, nil
}

// CreateEmbedding 是单条查询文本的便捷方法。
func (c *openAIClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
