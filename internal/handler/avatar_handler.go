package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-chat-go/internal/config"
	"rag-chat-go/pkg/heygen"
)

// AvatarHandler 负责数字人网关相关的请求：签发流式会话凭证、
// 查询可用形象与声音、下发前端所需的默认配置。
type AvatarHandler struct {
	heygenClient *heygen.Client
	heygenCfg    config.HeyGenConfig
}

// NewAvatarHandler 创建一个新的 AvatarHandler 实例。
func NewAvatarHandler(heygenClient *heygen.Client, heygenCfg config.HeyGenConfig) *AvatarHandler {
	return &AvatarHandler{heygenClient: heygenClient, heygenCfg: heygenCfg}
}

// CreateToken 为一次数字人流式会话签发短期凭证。
func (h *AvatarHandler) CreateToken(c *gin.Context) {
	if h.heygenCfg.APIKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "数字人服务未配置"})
		return
	}
	t, err := h.heygenClient.CreateStreamingToken(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "签发数字人凭证失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": t.Token, "expires_at": t.ExpiresAt})
}

// ListAvatars 透传上游的数字人形象列表。
func (h *AvatarHandler) ListAvatars(c *gin.Context) {
	data, err := h.heygenClient.ListAvatars(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "查询数字人形象失败: " + err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// ListVoices 透传上游的声音列表。
func (h *AvatarHandler) ListVoices(c *gin.Context) {
	data, err := h.heygenClient.ListVoices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "查询声音列表失败: " + err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// GetConfig 下发前端初始化数字人会话所需的默认形象与声音。
func (h *AvatarHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"avatar_id": h.heygenCfg.AvatarID,
		"voice_id":  h.heygenCfg.VoiceID,
		"enabled":   h.heygenCfg.APIKey != "",
	})
}
