// Package handler 包含 Gin 的 HTTP 请求处理器。
package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/internal/service"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/storage"
)

// DocumentHandler 负责文档摄取与知识库管理相关的请求。
type DocumentHandler struct {
	ingestService   service.IngestService
	documentService service.DocumentService
	uploadCfg       config.UploadConfig
	minioCfg        config.MinIOConfig
	appVersion      string
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(
	ingestService service.IngestService,
	documentService service.DocumentService,
	uploadCfg config.UploadConfig,
	minioCfg config.MinIOConfig,
	appVersion string,
) *DocumentHandler {
	return &DocumentHandler{
		ingestService:   ingestService,
		documentService: documentService,
		uploadCfg:       uploadCfg,
		minioCfg:        minioCfg,
		appVersion:      appVersion,
	}
}

// IngestText 处理按文本摄取的请求。
func (h *DocumentHandler) IngestText(c *gin.Context) {
	var req model.IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式错误: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.TextContent) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text_content 不能为空"})
		return
	}

	result := h.ingestService.IngestText(c.Request.Context(), req.TextContent, req.Filename)
	h.respondIngest(c, result)
}

// IngestFile 处理按文件摄取的请求。类型与大小在读入内容后立即校验。
func (h *DocumentHandler) IngestFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 file 字段: " + err.Error()})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !h.extAllowed(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的文件类型: " + ext})
		return
	}
	if fileHeader.Size > h.uploadCfg.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "文件超过大小上限"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "打开上传文件失败: " + err.Error()})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败: " + err.Error()})
		return
	}

	// 原件留存到对象存储，失败只记日志不阻断摄取
	if _, err := storage.PutUpload(c.Request.Context(), h.minioCfg.BucketName, fileHeader.Filename, content); err != nil {
		log.Warnf("[DocumentHandler] 留存原件到对象存储失败: %v", err)
	}

	result := h.ingestService.IngestFile(c.Request.Context(), content, fileHeader.Filename)
	h.respondIngest(c, result)
}

func (h *DocumentHandler) respondIngest(c *gin.Context, result *model.IngestResult) {
	resp := model.IngestResponse{
		Success:       result.Success,
		Message:       result.Message,
		ChunksCreated: result.ChunksCreated,
		FileSize:      result.FileSize,
	}
	if len(result.DocumentIDs) > 0 {
		resp.DocumentID = &result.DocumentIDs[0]
	}
	if !result.Success {
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentHandler) extAllowed(ext string) bool {
	for _, allowed := range h.uploadCfg.AllowedFileTypes {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ListDocuments 返回登记表中的全部文档记录。
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	records, err := h.documentService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询文档记录失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": records, "total": len(records)})
}

// CountDocuments 返回向量库中的记录总数。
func (h *DocumentHandler) CountDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.documentService.Count(c.Request.Context())})
}

// ClearDocuments 不可逆地清空知识库。
func (h *DocumentHandler) ClearDocuments(c *gin.Context) {
	if err := h.documentService.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "清空知识库失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All documents cleared successfully"})
}

// Health 健康检查：探测向量库连通性并附带记录总数。
func (h *DocumentHandler) Health(c *gin.Context) {
	if err := h.documentService.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":                 "unhealthy",
			"vector_store_connected": false,
			"version":                h.appVersion,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                 "healthy",
		"vector_store_connected": true,
		"documents_count":        h.documentService.Count(c.Request.Context()),
		"version":                h.appVersion,
	})
}
