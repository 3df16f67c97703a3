// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/errs"
	"rag-chat-go/pkg/log"
)

// Message 表示一条角色消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams 控制生成行为。
type GenerationParams struct {
	Temperature float32
	MaxTokens   int
}

// Fragment 是流式生成的一个离散事件：要么携带一个内容片段，
// 要么携带非空的 Err 作为可区分的终止事件（之后通道关闭，不再有片段）。
type Fragment struct {
	Content string
	Err     error
}

// Client defines the interface for an LLM client.
type Client interface {
	// Complete 返回一次完整的生成结果。
	Complete(ctx context.Context, messages []Message, gen GenerationParams) (string, error)
	// CompleteStream 返回一个片段通道。片段在上游到达时立即下发，不做整体缓冲；
	// 所有片段按序拼接等价于 Complete 对相同输入的返回（不计上游的非确定性）。
	CompleteStream(ctx context.Context, messages []Message, gen GenerationParams) (<-chan Fragment, error)
}

type openAIClient struct {
	api   *openai.Client
	model string
}

// NewClient 根据配置创建 LLM 客户端，支持 Azure OpenAI 与任意 OpenAI 兼容端点。
func NewClient(cfg config.LLMConfig) Client {
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

func (c *openAIClient) buildRequest(messages []Message, gen GenerationParams, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: gen.Temperature,
		MaxTokens:   gen.MaxTokens,
		Stream:      stream,
	}
}

// Complete 调用聊天接口并返回完整答案。
func (c *openAIClient) Complete(ctx context.Context, messages []Message, gen GenerationParams) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(messages, gen, false))
	if err != nil {
		log.Errorf("[LLMClient] 调用聊天接口失败: %v", err)
		return "", fmt.Errorf("%w: 调用聊天接口失败: %v", errs.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		log.Warnf("[LLMClient] 聊天接口未返回任何候选")
		return "No response generated", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream 调用聊天接口并把片段在到达时逐个写入返回的通道。
// 通道无缓冲：上游每产出一个片段就移交给消费者一次，不会整体缓冲后再下发。
// 消费者取消 ctx 后生产者停止读取上游并退出。
func (c *openAIClient) CompleteStream(ctx context.Context, messages []Message, gen GenerationParams) (<-chan Fragment, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, c.buildRequest(messages, gen, true))
	if err != nil {
		log.Errorf("[LLMClient] 建立流式聊天失败: %v", err)
		return nil, fmt.Errorf("%w: 建立流式聊天失败: %v", errs.ErrUpstream, err)
	}

	ch := make(chan Fragment)
	go func() {
		defer close(ch)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// 流中途失败：下发一个可区分的终止事件而不是静默截断
				select {
				case ch <- Fragment{Err: fmt.Errorf("%w: 流式生成中断: %v", errs.ErrUpstream, err)}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case ch <- Fragment{Content: resp.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
