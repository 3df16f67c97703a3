package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-chat-go/internal/service"
)

// ConversationHandler 负责会话记录的查询请求。
type ConversationHandler struct {
	conversationService service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// GetHistory 返回指定会话的留存消息，不存在的会话返回空列表。
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	conversationID := c.Param("id")
	msgs, err := h.conversationService.GetHistory(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取会话记录失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conversationID,
		"messages":        msgs,
		"total":           len(msgs),
	})
}
