package vectorstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"

	"rag-chat-go/pkg/log"
)

// fakeES 模拟索引的存在性检查与创建，统计创建请求次数。
type fakeES struct {
	created     bool
	createCalls int
}

func (f *fakeES) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/documents":
			if f.created {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.Method == http.MethodPut && r.URL.Path == "/documents":
			f.createCalls++
			f.created = true
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"acknowledged":true,"index":"documents"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestEnsureCollectionIdempotent(t *testing.T) {
	log.Init("error", "console", "")

	fake := &fakeES{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("创建 Elasticsearch 客户端失败: %v", err)
	}
	s := &esStore{client: client, index: "documents", dims: 4}

	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("首次创建集合失败: %v", err)
	}
	if fake.createCalls != 1 {
		t.Fatalf("首次调用应创建索引一次, 实际 %d 次", fake.createCalls)
	}

	// 同一结构再次调用必须是无错误的空操作
	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("重复创建集合不应报错: %v", err)
	}
	if fake.createCalls != 1 {
		t.Errorf("重复调用不应再次创建索引, 实际共 %d 次", fake.createCalls)
	}
}
