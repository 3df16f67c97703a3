package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/token"
)

// stubChatService 按预置事件回放一轮流式问答。
type stubChatService struct {
	events []model.StreamEvent
}

func (s *stubChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	return &model.ChatResponse{Response: "回答", Sources: []string{"a.txt"}}, nil
}

func (s *stubChatService) StreamChat(ctx context.Context, req *model.ChatRequest) (<-chan model.StreamEvent, error) {
	ch := make(chan model.StreamEvent)
	go func() {
		defer close(ch)
		for _, ev := range s.events {
			ch <- ev
		}
	}()
	return ch, nil
}

func TestChatSSEEmitsOnlyDoneSentinel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubChatService{events: []model.StreamEvent{
		{Type: model.EventSources, Sources: []string{"a.txt", "b.pdf"}},
		{Type: model.EventContent, Content: "你好"},
		{Type: model.EventContent, Content: "世界"},
		{Type: model.EventDone},
	}}
	h := NewChatHandler(stub, token.NewJWTManager("test-secret", 10))

	r := gin.New()
	r.POST("/chat", h.Chat)

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"message":"问题"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 200", w.Code)
	}
	body := w.Body.String()

	if !strings.Contains(body, `"type":"sources"`) {
		t.Errorf("响应缺少来源事件: %q", body)
	}
	if !strings.Contains(body, `"type":"content"`) {
		t.Errorf("响应缺少内容事件: %q", body)
	}
	// 正常结束只允许 [DONE] 哨兵，不得出现独立的 done JSON 帧
	if strings.Contains(body, `"type":"done"`) {
		t.Errorf("响应包含多余的 done 帧: %q", body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Errorf("响应应以 [DONE] 哨兵结束: %q", body)
	}
}

func TestChatSSEErrorEventHasNoSentinel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubChatService{events: []model.StreamEvent{
		{Type: model.EventSources, Sources: []string{"a.txt"}},
		{Type: model.EventError, Err: "上游中断"},
	}}
	h := NewChatHandler(stub, token.NewJWTManager("test-secret", 10))

	r := gin.New()
	r.POST("/chat", h.Chat)

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"message":"问题"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `"type":"error"`) {
		t.Errorf("响应缺少错误事件: %q", body)
	}
	if strings.Contains(body, "[DONE]") {
		t.Errorf("错误结束的流不应携带 [DONE] 哨兵: %q", body)
	}
}
