// Package model 包含了应用的数据模型定义。
package model

import "time"

// Chunk 代表源文本中一段连续的切片，是存储与检索的基本单位。
// 由切分器创建后不可变，只随知识库整体清空而删除。
type Chunk struct {
	Content        string    `json:"content"`
	SourceFilename string    `json:"filename"`
	ChunkIndex     int       `json:"chunk_index"`
	FileType       string    `json:"file_type"`
	CreatedAt      time.Time `json:"upload_date"`
}

// StoredRecord 是写入向量库的持久化单元：Chunk 的字段加上它的向量。
// 记录标识符由网关在插入时生成。
type StoredRecord struct {
	Chunk  Chunk
	Vector []float32
}

// RetrievalMetadata 是检索结果中除正文外的元数据。
type RetrievalMetadata struct {
	Filename   string   `json:"filename"`
	ChunkIndex int      `json:"chunk_index"`
	FileType   string   `json:"file_type"`
	UploadDate string   `json:"upload_date"`
	Distance   *float64 `json:"distance"`
}

// RetrievalResult 是一次相似度检索命中的瞬态对象，仅存在于单次请求内。
type RetrievalResult struct {
	Content  string            `json:"content"`
	Metadata RetrievalMetadata `json:"metadata"`
	Score    float64           `json:"score"`
}

// IngestResult 是摄取管道的结构化返回值。
// 管道内部任何阶段的失败都转换为 Success=false 的结果对象，而不是把原始错误抛过边界。
type IngestResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Filename      string   `json:"filename"`
	ChunksCreated int      `json:"chunks_created"`
	FileSize      int64    `json:"file_size"`
	DocumentIDs   []string `json:"document_ids,omitempty"`
}

// DocumentRecord 对应数据库中的 document_records 表，登记每次成功摄取的文档。
type DocumentRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename   string    `gorm:"type:varchar(255);not null;index" json:"filename"`
	FileType   string    `gorm:"type:varchar(16);not null" json:"fileType"`
	FileSize   int64     `gorm:"not null" json:"fileSize"`
	ChunkCount int       `gorm:"not null" json:"chunkCount"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentRecord) TableName() string {
	return "document_records"
}
