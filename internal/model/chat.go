package model

import "time"

// 消息角色枚举。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 代表一条带角色的对话消息。
type ChatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ChatRequest 是聊天接口的请求体。历史由调用方自带，服务端不维护会话状态。
type ChatRequest struct {
	Message             string        `json:"message" binding:"required"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
	ConversationID      string        `json:"conversation_id"`
	Stream              *bool         `json:"stream"`
}

// IsStream 返回是否流式返回，默认为 true。
func (r *ChatRequest) IsStream() bool {
	return r.Stream == nil || *r.Stream
}

// ChatResponse 是非流式聊天的响应体。
type ChatResponse struct {
	Response       string   `json:"response"`
	Sources        []string `json:"sources"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// StreamEventType 标识流式聊天事件的种类。
type StreamEventType int

const (
	// EventSources 携带本轮检索命中的来源文件名列表（保持命中顺序，不去重）。
	EventSources StreamEventType = iota
	// EventContent 携带一个生成片段。
	EventContent
	// EventDone 是正常结束的终止哨兵。
	EventDone
	// EventError 携带失败信息并终止流，之后不再有任何事件。
	EventError
)

// StreamEvent 是检索问答管道发给传输层的离散事件。
type StreamEvent struct {
	Type    StreamEventType
	Sources []string
	Content string
	Err     string
}

// IngestTextRequest 是按文本摄取接口的请求体。
type IngestTextRequest struct {
	TextContent string `json:"text_content"`
	Filename    string `json:"filename"`
}

// IngestResponse 是摄取接口的响应体。
type IngestResponse struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	DocumentID    *string `json:"document_id,omitempty"`
	ChunksCreated int     `json:"chunks_created"`
	FileSize      int64   `json:"file_size,omitempty"`
}
