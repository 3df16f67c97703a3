package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rag-chat-go/internal/model"
	"rag-chat-go/internal/service"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/token"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChatHandler 负责检索问答相关的请求，同时支持 HTTP(SSE) 与 WebSocket 两种传输。
type ChatHandler struct {
	chatService service.ChatService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{chatService: chatService, jwtManager: jwtManager}
}

// Chat 处理一轮问答请求。stream 字段缺省为 true，此时以 SSE 推送事件。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式错误: " + err.Error()})
		return
	}

	if !req.IsStream() {
		resp, err := h.chatService.Chat(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "问答失败: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	events, err := h.chatService.StreamChat(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "问答失败: " + err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "当前连接不支持流式响应"})
		return
	}

	for ev := range events {
		// 正常结束只下发 [DONE] 哨兵，事件序列中没有独立的 done 帧
		if ev.Type == model.EventDone {
			if _, err := c.Writer.WriteString("data: [DONE]\n\n"); err != nil {
				return
			}
			flusher.Flush()
			continue
		}
		payload, err := json.Marshal(streamEventPayload(ev))
		if err != nil {
			log.Errorf("[ChatHandler] 序列化流式事件失败: %v", err)
			continue
		}
		if _, err := c.Writer.WriteString("data: " + string(payload) + "\n\n"); err != nil {
			return
		}
		flusher.Flush()
	}
}

// streamEventPayload 把内部事件转换为前端可见的 JSON 结构。
func streamEventPayload(ev model.StreamEvent) gin.H {
	switch ev.Type {
	case model.EventSources:
		return gin.H{"type": "sources", "sources": ev.Sources}
	case model.EventContent:
		return gin.H{"type": "content", "content": ev.Content}
	case model.EventError:
		return gin.H{"type": "error", "error": ev.Err}
	default:
		return gin.H{"type": "done"}
	}
}

// GetWSToken 为 WebSocket 聊天签发短期令牌。
func (h *ChatHandler) GetWSToken(c *gin.Context) {
	t, err := h.jwtManager.GenerateChatToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "签发令牌失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": t})
}

// HandleWS 处理 WebSocket 聊天连接：先校验路径中的令牌，之后每收到一条
// 聊天请求就执行一轮流式问答，把事件作为 JSON 帧逐个写回。
func (h *ChatHandler) HandleWS(c *gin.Context) {
	if err := h.jwtManager.VerifyToken(c.Param("token")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "令牌无效或已过期"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("[ChatHandler] WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req model.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("[ChatHandler] WebSocket 连接异常断开: %v", err)
			}
			return
		}
		if req.Message == "" {
			if err := conn.WriteJSON(gin.H{"type": "error", "error": "message 不能为空"}); err != nil {
				return
			}
			continue
		}

		events, err := h.chatService.StreamChat(c.Request.Context(), &req)
		if err != nil {
			if err := conn.WriteJSON(gin.H{"type": "error", "error": err.Error()}); err != nil {
				return
			}
			continue
		}
		for ev := range events {
			if err := conn.WriteJSON(streamEventPayload(ev)); err != nil {
				return
			}
		}
	}
}
