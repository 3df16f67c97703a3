package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"rag-chat-go/internal/model"
)

const (
	// conversationKeyPrefix 是 Redis 中会话记录的 key 前缀。
	conversationKeyPrefix = "conversation:"
	// maxStoredMessages 是每个会话保留的最大消息条数。
	maxStoredMessages = 20
	// conversationTTL 是会话记录的过期时间。
	conversationTTL = 7 * 24 * time.Hour
)

// ConversationRepository 定义了会话记录的存取接口。
// 记录仅作审计与回放用途，不参与提示词构建。
type ConversationRepository interface {
	AppendExchange(ctx context.Context, conversationID, question, answer string) error
	GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
}

type conversationRepository struct {
	rdb *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(rdb *redis.Client) ConversationRepository {
	return &conversationRepository{rdb: rdb}
}

// AppendExchange 把一轮问答追加到会话记录，只保留最近 maxStoredMessages 条。
func (r *conversationRepository) AppendExchange(ctx context.Context, conversationID, question, answer string) error {
	now := time.Now()
	msgs := []model.ChatMessage{
		{Role: model.RoleUser, Content: question, Timestamp: &now},
		{Role: model.RoleAssistant, Content: answer, Timestamp: &now},
	}

	key := conversationKeyPrefix + conversationID
	pipe := r.rdb.Pipeline()
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("序列化会话消息失败: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, -maxStoredMessages, -1)
	pipe.Expire(ctx, key, conversationTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetHistory 返回指定会话的全部留存消息，不存在的会话返回空切片。
func (r *conversationRepository) GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	key := conversationKeyPrefix + conversationID
	items, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("读取会话记录失败: %w", err)
	}

	msgs := make([]model.ChatMessage, 0, len(items))
	for _, item := range items {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
