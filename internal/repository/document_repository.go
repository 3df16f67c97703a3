// Package repository 包含数据访问层的实现。
package repository

import (
	"gorm.io/gorm"

	"rag-chat-go/internal/model"
)

// DocumentRepository 定义了文档登记表的数据库操作接口。
type DocumentRepository interface {
	Create(record *model.DocumentRecord) error
	FindAll() ([]model.DocumentRecord, error)
	DeleteAll() error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 登记一条成功摄取的文档记录。
func (r *documentRepository) Create(record *model.DocumentRecord) error {
	return r.db.Create(record).Error
}

// FindAll 按摄取时间倒序返回全部文档记录。
func (r *documentRepository) FindAll() ([]model.DocumentRecord, error) {
	var records []model.DocumentRecord
	err := r.db.Order("created_at DESC").Find(&records).Error
	return records, err
}

// DeleteAll 清空文档登记表，与向量库的清空操作配套使用。
func (r *documentRepository) DeleteAll() error {
	return r.db.Where("1 = 1").Delete(&model.DocumentRecord{}).Error
}
