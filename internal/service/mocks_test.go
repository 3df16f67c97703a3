package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/llm"
)

// mockEmbedder 返回确定性的向量并统计调用次数。
type mockEmbedder struct {
	batchCalls  int
	singleCalls int
	failBatch   bool
}

func (m *mockEmbedder) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.failBatch {
		return nil, errors.New("embedding unavailable")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, nil
}

func (m *mockEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.singleCalls++
	if m.failBatch {
		return nil, errors.New("embedding unavailable")
	}
	return []float32{0.5, 0.5}, nil
}

// mockStore 记录插入的记录并可模拟部分写入失败。
type mockStore struct {
	inserted      []model.StoredRecord
	insertCalls   int
	searchCalls   int
	deleteCalls   int
	failAfter     int // >0 时写入第 failAfter+1 条记录失败
	searchResults []model.RetrievalResult
}

func (m *mockStore) EnsureCollection(ctx context.Context) error { return nil }

func (m *mockStore) Insert(ctx context.Context, records []model.StoredRecord) ([]string, error) {
	m.insertCalls++
	ids := make([]string, 0, len(records))
	for i, rec := range records {
		if m.failAfter > 0 && i >= m.failAfter {
			return ids, errors.New("insert failed midway")
		}
		m.inserted = append(m.inserted, rec)
		ids = append(ids, fmt.Sprintf("id-%d", len(m.inserted)))
	}
	return ids, nil
}

func (m *mockStore) Search(ctx context.Context, queryVector []float32, limit int) ([]model.RetrievalResult, error) {
	m.searchCalls++
	if limit < len(m.searchResults) {
		return m.searchResults[:limit], nil
	}
	return m.searchResults, nil
}

func (m *mockStore) DeleteAll(ctx context.Context) error {
	m.deleteCalls++
	m.inserted = nil
	return nil
}

func (m *mockStore) Count(ctx context.Context) int64 { return int64(len(m.inserted)) }

func (m *mockStore) Ping(ctx context.Context) error { return nil }

// mockLLM 按预置片段回放流式生成。
type mockLLM struct {
	fragments     []llm.Fragment
	lastMessages  []llm.Message
	completeCalls int
	streamCalls   int
}

func (m *mockLLM) Complete(ctx context.Context, messages []llm.Message, gen llm.GenerationParams) (string, error) {
	m.completeCalls++
	m.lastMessages = messages
	var out string
	for _, f := range m.fragments {
		if f.Err != nil {
			return "", f.Err
		}
		out += f.Content
	}
	return out, nil
}

func (m *mockLLM) CompleteStream(ctx context.Context, messages []llm.Message, gen llm.GenerationParams) (<-chan llm.Fragment, error) {
	m.streamCalls++
	m.lastMessages = messages
	ch := make(chan llm.Fragment)
	go func() {
		defer close(ch)
		for _, f := range m.fragments {
			select {
			case ch <- f:
			case <-ctx.Done():
				return
			}
			if f.Err != nil {
				return
			}
		}
	}()
	return ch, nil
}

// mockDocRepo 在内存中登记文档记录。
type mockDocRepo struct {
	records    []model.DocumentRecord
	failCreate bool
}

func (m *mockDocRepo) Create(record *model.DocumentRecord) error {
	if m.failCreate {
		return errors.New("registry down")
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *mockDocRepo) FindAll() ([]model.DocumentRecord, error) { return m.records, nil }

func (m *mockDocRepo) DeleteAll() error {
	m.records = nil
	return nil
}

// mockConvRepo 在内存中留存会话记录。
type mockConvRepo struct {
	exchanges map[string][]model.ChatMessage
	appends   int
}

func (m *mockConvRepo) AppendExchange(ctx context.Context, conversationID, question, answer string) error {
	m.appends++
	if m.exchanges == nil {
		m.exchanges = make(map[string][]model.ChatMessage)
	}
	m.exchanges[conversationID] = append(m.exchanges[conversationID],
		model.ChatMessage{Role: model.RoleUser, Content: question},
		model.ChatMessage{Role: model.RoleAssistant, Content: answer},
	)
	return nil
}

func (m *mockConvRepo) GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	return m.exchanges[conversationID], nil
}

// mockExtractor 统计二进制文本抽取的调用次数。
type mockExtractor struct {
	calls int
	text  string
	fail  bool
}

func (m *mockExtractor) ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	m.calls++
	if m.fail {
		return "", errors.New("tika unavailable")
	}
	return m.text, nil
}
