package repository

import (
	"gorm.io/gorm"

	"docuseek-go/internal/model"
)

// DocumentRepository 接口定义了文档元数据的持久化操作。
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindByID(documentID string) (*model.Document, error)
	FindByUserID(userID uint, offset, limit int) ([]model.Document, int64, error)
	FindAllWithPagination(offset, limit int) ([]model.Document, int64, error)
	FindBatchByIDs(documentIDs []string) ([]model.Document, error)
	UpdateExtraction(documentID, content string, metadata model.MetadataMap, categories model.StringList, status int) error
	UpdateStatus(documentID string, status int) error
	Delete(documentID string) error
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 在数据库中创建一条新的文档记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// FindByID 根据文档 ID 查找一条文档记录。
func (r *documentRepository) FindByID(documentID string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ?", documentID).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByUserID 分页检索指定用户拥有的文档列表。
func (r *documentRepository) FindByUserID(userID uint, offset, limit int) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	db := r.db.Model(&model.Document{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// FindAllWithPagination 分页检索全部文档记录（管理员视角）。
func (r *documentRepository) FindAllWithPagination(offset, limit int) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	db := r.db.Model(&model.Document{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// FindBatchByIDs 按 ID 批量检索文档记录。
func (r *documentRepository) FindBatchByIDs(documentIDs []string) ([]model.Document, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	var docs []model.Document
	err := r.db.Where("id IN ?", documentIDs).Find(&docs).Error
	return docs, err
}

// UpdateExtraction 在解析完成后写入文档的全文、元数据、分类及状态。
func (r *documentRepository) UpdateExtraction(documentID, content string, metadata model.MetadataMap, categories model.StringList, status int) error {
	return r.db.Model(&model.Document{}).Where("id = ?", documentID).Updates(map[string]interface{}{
		"content":    content,
		"metadata":   metadata,
		"categories": categories,
		"status":     status,
	}).Error
}

// UpdateStatus 更新文档的处理状态。
func (r *documentRepository) UpdateStatus(documentID string, status int) error {
	return r.db.Model(&model.Document{}).Where("id = ?", documentID).Update("status", status).Error
}

// Delete 在一个事务中删除文档记录及其全部分段。
func (r *documentRepository) Delete(documentID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Segment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", documentID).Delete(&model.Document{}).Error
	})
}
