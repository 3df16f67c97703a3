package service

import (
	"context"

	"rag-chat-go/internal/model"
	"rag-chat-go/internal/repository"
	"rag-chat-go/pkg/log"
	"rag-chat-go/pkg/vectorstore"
)

// DocumentService 定义了知识库管理操作的接口。
type DocumentService interface {
	// List 返回登记表中的全部文档记录。
	List() ([]model.DocumentRecord, error)
	// Count 返回向量库中的记录总数，不可达时为 0。
	Count(ctx context.Context) int64
	// Clear 不可逆地清空向量库与登记表。
	Clear(ctx context.Context) error
	// Ping 探测向量库连通性。
	Ping(ctx context.Context) error
}

type documentService struct {
	store   vectorstore.Store
	docRepo repository.DocumentRepository
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(store vectorstore.Store, docRepo repository.DocumentRepository) DocumentService {
	return &documentService{store: store, docRepo: docRepo}
}

func (s *documentService) List() ([]model.DocumentRecord, error) {
	return s.docRepo.FindAll()
}

func (s *documentService) Count(ctx context.Context) int64 {
	return s.store.Count(ctx)
}

// Clear 先清空向量库再清空登记表，登记表失败只记日志。
func (s *documentService) Clear(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.docRepo.DeleteAll(); err != nil {
		log.Warnf("[DocumentService] 清空文档登记表失败: %v", err)
	}
	log.Info("[DocumentService] 知识库已清空")
	return nil
}

func (s *documentService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
