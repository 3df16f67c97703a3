// Package vectorstore 提供基于 Elasticsearch 的向量库网关，
// 管理单个逻辑集合（索引）中的 (文本, 元数据, 向量) 记录。
package vectorstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"rag-chat-go/internal/config"
	"rag-chat-go/internal/errs"
	"rag-chat-go/internal/model"
	"rag-chat-go/pkg/log"
)

// Store 定义了向量库网关的操作。
type Store interface {
	// EnsureCollection 幂等地创建集合：不存在则按声明的属性结构建立，已存在则不做任何事。
	EnsureCollection(ctx context.Context) error
	// Insert 逐条写入记录并返回逐条生成的标识符（与输入同序同数）。
	// 写入不是批量事务：中途失败时此前成功的记录保持已持久化状态。
	Insert(ctx context.Context, records []model.StoredRecord) ([]string, error)
	// Search 返回与查询向量距离升序（最近优先）的检索结果。
	Search(ctx context.Context, queryVector []float32, limit int) ([]model.RetrievalResult, error)
	// DeleteAll 不可逆地删除集合中的全部记录。
	DeleteAll(ctx context.Context) error
	// Count 返回记录总数；集合不可达时退化为 0 而不是报错，仅作诊断用途。
	Count(ctx context.Context) int64
	// Ping 探测向量库连通性，供健康检查使用。
	Ping(ctx context.Context) error
}

type esStore struct {
	client *elasticsearch.Client
	index  string
	dims   int
}

// NewStore 创建并初始化向量库网关。初始化阶段连接失败是致命的：网关无法构造自身。
func NewStore(cfg config.ElasticsearchConfig) (Store, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Addresses},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Elasticsearch 客户端失败: %w", err)
	}

	s := &esStore{client: client, index: cfg.IndexName, dims: cfg.Dimensions}
	if err := s.EnsureCollection(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// storedDoc 是索引中持久化的文档结构：Chunk 的字段加向量。
type storedDoc struct {
	Content    string    `json:"content"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	FileType   string    `json:"file_type"`
	UploadDate time.Time `json:"upload_date"`
	Vector     []float32 `json:"vector"`
}

// EnsureCollection 检查索引是否存在，不存在则按声明的属性结构创建。
// 结构不一致时不做迁移，交由运维处理。
func (s *esStore) EnsureCollection(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("检查索引 '%s' 是否存在时出错: %w", s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", s.index)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引 '%s' 时收到意外的状态码: %d", s.index, res.StatusCode)
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"content": { "type": "text" },
				"filename": { "type": "keyword" },
				"chunk_index": { "type": "integer" },
				"file_type": { "type": "keyword" },
				"upload_date": { "type": "date" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				}
			}
		}
	}`, s.dims)

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", s.index, res.String())
	}
	log.Infof("索引 '%s' 创建成功", s.index)
	return nil
}

// Insert 逐条索引记录。标识符在插入时由客户端生成，返回顺序与输入一致。
func (s *esStore) Insert(ctx context.Context, records []model.StoredRecord) ([]string, error) {
	ids := make([]string, 0, len(records))
	for i, rec := range records {
		doc := storedDoc{
			Content:    rec.Chunk.Content,
			Filename:   rec.Chunk.SourceFilename,
			ChunkIndex: rec.Chunk.ChunkIndex,
			FileType:   rec.Chunk.FileType,
			UploadDate: rec.Chunk.CreatedAt,
			Vector:     rec.Vector,
		}
		docBytes, err := json.Marshal(doc)
		if err != nil {
			return ids, fmt.Errorf("序列化第 %d 条记录失败: %w", i, err)
		}

		id := uuid.NewString()
		req := esapi.IndexRequest{
			Index:      s.index,
			DocumentID: id,
			Body:       bytes.NewReader(docBytes),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, s.client)
		if err != nil {
			return ids, fmt.Errorf("%w: 写入第 %d 条记录失败: %v", errs.ErrUpstream, i, err)
		}
		if res.IsError() {
			msg := res.String()
			res.Body.Close()
			return ids, fmt.Errorf("%w: 写入第 %d 条记录时 Elasticsearch 返回错误: %s", errs.ErrUpstream, i, msg)
		}
		res.Body.Close()
		ids = append(ids, id)
	}
	log.Infof("[VectorStore] 已写入 %d 条记录到索引 '%s'", len(ids), s.index)
	return ids, nil
}

// Search 执行 knn 近邻检索，结果按距离升序排列。
func (s *esStore) Search(ctx context.Context, queryVector []float32, limit int) ([]model.RetrievalResult, error) {
	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   queryVector,
			"k":              limit,
			"num_candidates": limit * 10,
		},
		"size": limit,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("序列化检索请求失败: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: 向量检索失败: %v", errs.ErrUpstream, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%w: 向量检索时 Elasticsearch 返回错误 [%s]: %s", errs.ErrUpstream, res.Status(), string(body))
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Score  *float64  `json:"_score"`
				Source storedDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("%w: 解析检索响应失败: %v", errs.ErrUpstream, err)
	}

	results := make([]model.RetrievalResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		// ES 的 knn _score 即余弦相似度映射值，换算回距离以维持对外的 distance/score 契约
		var distance *float64
		if hit.Score != nil {
			d := 1 - *hit.Score
			distance = &d
		}
		results = append(results, model.RetrievalResult{
			Content: hit.Source.Content,
			Metadata: model.RetrievalMetadata{
				Filename:   hit.Source.Filename,
				ChunkIndex: hit.Source.ChunkIndex,
				FileType:   hit.Source.FileType,
				UploadDate: hit.Source.UploadDate.Format(time.RFC3339),
				Distance:   distance,
			},
			Score: ScoreFromDistance(distance),
		})
	}
	log.Infof("[VectorStore] 检索命中 %d 条记录", len(results))
	return results, nil
}

// DeleteAll 以 match_all 删除集合内全部记录，用于知识库重置。
func (s *esStore) DeleteAll(ctx context.Context) error {
	body := strings.NewReader(`{"query":{"match_all":{}}}`)
	res, err := s.client.DeleteByQuery(
		[]string{s.index},
		body,
		s.client.DeleteByQuery.WithContext(ctx),
		s.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("%w: 清空索引失败: %v", errs.ErrUpstream, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: 清空索引时 Elasticsearch 返回错误: %s", errs.ErrUpstream, res.String())
	}
	log.Infof("[VectorStore] 索引 '%s' 已清空", s.index)
	return nil
}

// Count 返回记录总数，任何失败都退化为 0。
func (s *esStore) Count(ctx context.Context) int64 {
	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.index),
	)
	if err != nil {
		log.Warnf("[VectorStore] 统计记录数失败, 返回 0: %v", err)
		return 0
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Warnf("[VectorStore] 统计记录数时 Elasticsearch 返回错误, 返回 0: %s", res.Status())
		return 0
	}

	var countResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		log.Warnf("[VectorStore] 解析计数响应失败, 返回 0: %v", err)
		return 0
	}
	return countResp.Count
}

// Ping 探测 Elasticsearch 连通性。
func (s *esStore) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: 向量库不可达: %v", errs.ErrUpstream, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: 向量库返回错误: %s", errs.ErrUpstream, res.Status())
	}
	return nil
}

// ScoreFromDistance 按 score = 1 - distance 推导相似度得分。
// 距离缺失时回退为 1：这只是占位的默认置信度，不是相似度度量的语义保证。
func ScoreFromDistance(distance *float64) float64 {
	if distance == nil {
		return 1
	}
	return 1 - *distance
}
