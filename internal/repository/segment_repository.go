package repository

import (
	"gorm.io/gorm"

	"docuseek-go/internal/model"
)

// SegmentRepository 接口定义了文档分段的持久化操作。
type SegmentRepository interface {
	// ReplaceForDocument 原子地用新的分段集合替换文档的旧分段。
	ReplaceForDocument(documentID string, segments []model.Segment) error
	// FindByDocumentID 按起始偏移排序检索文档的全部分段。
	FindByDocumentID(documentID string) ([]model.Segment, error)
}

// segmentRepository 是 SegmentRepository 接口的 GORM 实现。
type segmentRepository struct {
	db *gorm.DB
}

// NewSegmentRepository 创建一个新的 SegmentRepository 实例。
func NewSegmentRepository(db *gorm.DB) SegmentRepository {
	return &segmentRepository{db: db}
}

// ReplaceForDocument 在一个事务中删除文档的旧分段并写入新分段。
// 重新处理文档时保证不会出现新旧分段混杂的中间状态。
func (r *segmentRepository) ReplaceForDocument(documentID string, segments []model.Segment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Segment{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return tx.CreateInBatches(segments, 200).Error
	})
}

// FindByDocumentID 按起始偏移排序检索文档的全部分段。
func (r *segmentRepository) FindByDocumentID(documentID string) ([]model.Segment, error) {
	var segments []model.Segment
	err := r.db.Where("document_id = ?", documentID).Order("start_position ASC").Find(&segments).Error
	return segments, err
}
