package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/llm"
)

func testRetrievalResults() []model.RetrievalResult {
	d1, d2 := 0.1, 0.3
	return []model.RetrievalResult{
		{Content: "第一段", Metadata: model.RetrievalMetadata{Filename: "a.txt", Distance: &d1}, Score: 0.9},
		{Content: "第二段", Metadata: model.RetrievalMetadata{Filename: "b.pdf", Distance: &d2}, Score: 0.7},
		{Content: "第三段", Metadata: model.RetrievalMetadata{Filename: "a.txt", Distance: &d2}, Score: 0.7},
	}
}

func newTestChatService(embedder *mockEmbedder, store *mockStore, llmClient *mockLLM, convRepo *mockConvRepo) ChatService {
	return NewChatService(embedder, store, llmClient, convRepo, config.RAGConfig{
		MaxRetrievedDocs: 5,
		Temperature:      0.7,
		MaxTokens:        1000,
	})
}

func collectEvents(t *testing.T, ch <-chan model.StreamEvent) []model.StreamEvent {
	t.Helper()
	var events []model.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestStreamChatEventSequence(t *testing.T) {
	store := &mockStore{searchResults: testRetrievalResults()}
	llmClient := &mockLLM{fragments: []llm.Fragment{
		{Content: "你好"}, {Content: "，"}, {Content: "世界"},
	}}
	convRepo := &mockConvRepo{}
	svc := newTestChatService(&mockEmbedder{}, store, llmClient, convRepo)

	ch, err := svc.StreamChat(context.Background(), &model.ChatRequest{Message: "问题"})
	if err != nil {
		t.Fatalf("StreamChat 返回错误: %v", err)
	}
	events := collectEvents(t, ch)

	if events[0].Type != model.EventSources {
		t.Fatalf("首个事件应为来源列表, 实际 %d", events[0].Type)
	}
	wantSources := []string{"a.txt", "b.pdf", "a.txt"}
	if len(events[0].Sources) != len(wantSources) {
		t.Fatalf("来源数量 = %d, 期望 %d", len(events[0].Sources), len(wantSources))
	}
	for i, s := range wantSources {
		if events[0].Sources[i] != s {
			t.Errorf("来源[%d] = %s, 期望 %s（保持命中顺序且不去重）", i, events[0].Sources[i], s)
		}
	}

	var answer string
	contentCount := 0
	for _, ev := range events[1 : len(events)-1] {
		if ev.Type != model.EventContent {
			t.Fatalf("中间事件应为内容片段, 实际 %d", ev.Type)
		}
		answer += ev.Content
		contentCount++
	}
	if contentCount != 3 || answer != "你好，世界" {
		t.Errorf("拼接结果 = %q (%d 个片段), 期望 你好，世界 (3 个片段)", answer, contentCount)
	}

	if events[len(events)-1].Type != model.EventDone {
		t.Errorf("末尾事件应为 done, 实际 %d", events[len(events)-1].Type)
	}
	if convRepo.appends != 1 {
		t.Errorf("期望留存 1 轮会话记录, 实际 %d", convRepo.appends)
	}
}

func TestStreamChatErrorIsTerminal(t *testing.T) {
	store := &mockStore{searchResults: testRetrievalResults()}
	llmClient := &mockLLM{fragments: []llm.Fragment{
		{Content: "部分"},
		{Err: errors.New("上游中断")},
	}}
	convRepo := &mockConvRepo{}
	svc := newTestChatService(&mockEmbedder{}, store, llmClient, convRepo)

	ch, err := svc.StreamChat(context.Background(), &model.ChatRequest{Message: "问题"})
	if err != nil {
		t.Fatalf("StreamChat 返回错误: %v", err)
	}
	events := collectEvents(t, ch)

	last := events[len(events)-1]
	if last.Type != model.EventError || last.Err == "" {
		t.Fatalf("末尾事件应为错误事件, 实际 type=%d err=%q", last.Type, last.Err)
	}
	for _, ev := range events {
		if ev.Type == model.EventDone {
			t.Error("错误事件之后不应出现 done 事件")
		}
	}
	if convRepo.appends != 0 {
		t.Errorf("失败的回合不应留存会话记录, 实际 %d", convRepo.appends)
	}
}

func TestStreamChatRetrievalFailureBeforeChannel(t *testing.T) {
	embedder := &mockEmbedder{failBatch: true}
	svc := newTestChatService(embedder, &mockStore{}, &mockLLM{}, &mockConvRepo{})

	ch, err := svc.StreamChat(context.Background(), &model.ChatRequest{Message: "问题"})
	if err == nil {
		t.Fatal("检索失败应当在建立流之前返回错误")
	}
	if ch != nil {
		t.Error("失败时不应返回事件通道")
	}
}

func TestChatMatchesStreamConcatenation(t *testing.T) {
	store := &mockStore{searchResults: testRetrievalResults()}
	llmClient := &mockLLM{fragments: []llm.Fragment{
		{Content: "完整"}, {Content: "回答"},
	}}
	svc := newTestChatService(&mockEmbedder{}, store, llmClient, &mockConvRepo{})

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Message: "问题"})
	if err != nil {
		t.Fatalf("Chat 返回错误: %v", err)
	}
	if resp.Response != "完整回答" {
		t.Errorf("非流式回答 = %q, 期望与片段拼接一致", resp.Response)
	}
	if resp.ConversationID == "" {
		t.Error("未提供会话标识时应当生成一个")
	}
	if len(resp.Sources) != 3 {
		t.Errorf("来源数量 = %d, 期望 3", len(resp.Sources))
	}
}

func TestChatHistoryCappedBetweenSystemAndUser(t *testing.T) {
	store := &mockStore{searchResults: testRetrievalResults()}
	llmClient := &mockLLM{fragments: []llm.Fragment{{Content: "回答"}}}
	svc := newTestChatService(&mockEmbedder{}, store, llmClient, &mockConvRepo{})

	history := make([]model.ChatMessage, 0, 15)
	for i := 0; i < 15; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		history = append(history, model.ChatMessage{Role: role, Content: fmt.Sprintf("历史-%d", i)})
	}

	if _, err := svc.Chat(context.Background(), &model.ChatRequest{
		Message:             "当前问题",
		ConversationHistory: history,
	}); err != nil {
		t.Fatalf("Chat 返回错误: %v", err)
	}

	msgs := llmClient.lastMessages
	if len(msgs) != maxHistoryMessages+2 {
		t.Fatalf("消息总数 = %d, 期望 system + %d 条历史 + user", len(msgs), maxHistoryMessages)
	}
	if msgs[0].Role != model.RoleSystem {
		t.Errorf("首条消息应为 system, 实际 %s", msgs[0].Role)
	}
	if msgs[len(msgs)-1].Role != model.RoleUser {
		t.Errorf("末条消息应为 user, 实际 %s", msgs[len(msgs)-1].Role)
	}
	// 历史截断保留最近的 maxHistoryMessages 条并维持原始顺序
	if msgs[1].Content != "历史-5" {
		t.Errorf("首条历史 = %s, 期望 历史-5", msgs[1].Content)
	}
	if msgs[len(msgs)-2].Content != "历史-14" {
		t.Errorf("末条历史 = %s, 期望 历史-14", msgs[len(msgs)-2].Content)
	}
}

func TestStreamChatContextCancellation(t *testing.T) {
	store := &mockStore{searchResults: testRetrievalResults()}
	fragments := make([]llm.Fragment, 100)
	for i := range fragments {
		fragments[i] = llm.Fragment{Content: "片段"}
	}
	llmClient := &mockLLM{fragments: fragments}
	svc := newTestChatService(&mockEmbedder{}, store, llmClient, &mockConvRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := svc.StreamChat(ctx, &model.ChatRequest{Message: "问题"})
	if err != nil {
		t.Fatalf("StreamChat 返回错误: %v", err)
	}

	<-ch // sources
	<-ch // 第一个内容片段
	cancel()

	// 取消后生产者应当退出并关闭通道
	for range ch {
	}
}
