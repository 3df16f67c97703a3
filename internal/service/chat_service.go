package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/repository"
	"rag-chat-go/pkg/embedding"
	"rag-chat-go/pkg/llm"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/vectorstore"
)

// maxHistoryMessages 是拼入提示词的会话历史上限，超出部分只保留最近的。
const maxHistoryMessages = 10

// saveTranscriptTimeout 限制会话留存的落盘时间。
const saveTranscriptTimeout = 5 * time.Second

// ChatService 定义了检索问答管道的接口。
type ChatService interface {
	// Chat 执行一轮非流式问答。
	Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
	// StreamChat 执行一轮流式问答。检索与提示构建同步完成，失败直接返回错误；
	// 返回的通道依次产出一条 sources 事件、零或多条 content 事件、一条终止事件。
	StreamChat(ctx context.Context, req *model.ChatRequest) (<-chan model.StreamEvent, error)
}

type chatService struct {
	embedder embedding.Client
	store    vectorstore.Store
	llm      llm.Client
	convRepo repository.ConversationRepository
	ragCfg   config.RAGConfig
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	embedder embedding.Client,
	store vectorstore.Store,
	llmClient llm.Client,
	convRepo repository.ConversationRepository,
	ragCfg config.RAGConfig,
) ChatService {
	return &chatService{
		embedder: embedder,
		store:    store,
		llm:      llmClient,
		convRepo: convRepo,
		ragCfg:   ragCfg,
	}
}

// retrieve 将问题向量化并做近邻检索。
func (s *chatService) retrieve(ctx context.Context, query string) ([]model.RetrievalResult, error) {
	log.Infof("[ChatService] 步骤1: 向量化用户问题")
	queryVector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	log.Infof("[ChatService] 步骤2: 检索相关文档, limit: %d", s.ragCfg.MaxRetrievedDocs)
	results, err := s.store.Search(ctx, queryVector, s.ragCfg.MaxRetrievedDocs)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// buildMessages 构建提示消息序列：system 指令在首，携带上下文与问题的 user 消息在尾，
// 最近 maxHistoryMessages 条会话历史按原始顺序拼接在两者之间。
func (s *chatService) buildMessages(req *model.ChatRequest, results []model.RetrievalResult) []llm.Message {
	prompt := llm.BuildRAGPrompt(req.Message, results)

	history := req.ConversationHistory
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, prompt[0])
	for _, h := range history {
		messages = append(messages, llm.Message{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, prompt[1])
	return messages
}

// sources 按命中顺序提取来源文件名，不去重。
func sources(results []model.RetrievalResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Metadata.Filename)
	}
	return out
}

func (s *chatService) genParams() llm.GenerationParams {
	return llm.GenerationParams{
		Temperature: s.ragCfg.Temperature,
		MaxTokens:   s.ragCfg.MaxTokens,
	}
}

// Chat 执行一轮非流式问答并留存会话记录。
func (s *chatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	results, err := s.retrieve(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	log.Infof("[ChatService] 步骤3: 调用大模型生成回答")
	answer, err := s.llm.Complete(ctx, s.buildMessages(req, results), s.genParams())
	if err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	s.saveTranscript(conversationID, req.Message, answer)

	return &model.ChatResponse{
		Response:       answer,
		Sources:        sources(results),
		ConversationID: conversationID,
	}, nil
}

// StreamChat 执行一轮流式问答。
// 错误分两类：进入流之前的失败作为返回值；流开始后的失败作为终止事件下发，
// 错误事件之后不再有任何事件（包括 done）。
func (s *chatService) StreamChat(ctx context.Context, req *model.ChatRequest) (<-chan model.StreamEvent, error) {
	results, err := s.retrieve(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	log.Infof("[ChatService] 步骤3: 建立流式生成")
	fragments, err := s.llm.CompleteStream(ctx, s.buildMessages(req, results), s.genParams())
	if err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	events := make(chan model.StreamEvent)
	go func() {
		defer close(events)

		if !s.emit(ctx, events, model.StreamEvent{Type: model.EventSources, Sources: sources(results)}) {
			return
		}

		var answer []byte
		for frag := range fragments {
			if frag.Err != nil {
				s.emit(ctx, events, model.StreamEvent{Type: model.EventError, Err: frag.Err.Error()})
				return
			}
			answer = append(answer, frag.Content...)
			if !s.emit(ctx, events, model.StreamEvent{Type: model.EventContent, Content: frag.Content}) {
				return
			}
		}

		if !s.emit(ctx, events, model.StreamEvent{Type: model.EventDone}) {
			return
		}
		if len(answer) > 0 {
			s.saveTranscript(conversationID, req.Message, string(answer))
		}
	}()
	return events, nil
}

func (s *chatService) emit(ctx context.Context, ch chan<- model.StreamEvent, ev model.StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// saveTranscript 留存一轮问答作审计用途，失败只记日志不影响响应。
// 使用独立的 context：请求结束不应中断落盘。
func (s *chatService) saveTranscript(conversationID, question, answer string) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTranscriptTimeout)
	defer cancel()
	if err := s.convRepo.AppendExchange(ctx, conversationID, question, answer); err != nil {
		log.Warnf("[ChatService] 留存会话记录失败: %v", err)
	}
}
