package service

import (
	"context"

	"rag-chat-go/internal/model"
	"rag-chat-go/internal/repository"
)

// ConversationService 提供会话记录的查询能力。
type ConversationService interface {
	GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(convRepo repository.ConversationRepository) ConversationService {
	return &conversationService{convRepo: convRepo}
}

func (s *conversationService) GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	return s.convRepo.GetHistory(ctx, conversationID)
}
