package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"docuseek-go/internal/config"
	"docuseek-go/internal/model"
	"docuseek-go/internal/repository"
	"docuseek-go/pkg/es"
	"docuseek-go/pkg/kafka"
	"docuseek-go/pkg/log"
	"docuseek-go/pkg/storage"
	"docuseek-go/pkg/tasks"
)

// DocumentService 接口定义了文档生命周期相关的业务操作。
type DocumentService interface {
	// Upload 接收上传的文件内容，写入对象存储并投递异步处理任务。
	Upload(ctx context.Context, user *model.User, filename, contentType string, size int64, reader io.Reader) (*model.Document, error)
	List(ctx context.Context, user *model.User, page, size int) ([]model.Document, int64, error)
	GetMetadata(ctx context.Context, documentID string, user *model.User) (*model.Document, error)
	GetDownloadURL(ctx context.Context, documentID string, user *model.User) (string, error)
	Delete(ctx context.Context, documentID string, user *model.User) error
}

// documentService 是 DocumentService 接口的实现。
type documentService struct {
	docRepo repository.DocumentRepository
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(docRepo repository.DocumentRepository) DocumentService {
	return &documentService{docRepo: docRepo}
}

// Upload 处理单次文件上传：生成文档 ID、写入 MinIO、落库、投递 Kafka 任务。
func (s *documentService) Upload(ctx context.Context, user *model.User, filename, contentType string, size int64, reader io.Reader) (*model.Document, error) {
	log.Infof("[DocumentService] 开始处理文件上传, filename: %s, size: %d, user: %s", filename, size, user.Username)

	documentID := strings.ReplaceAll(uuid.NewString(), "-", "")
	objectName := fmt.Sprintf("uploads/%s/%s", documentID, filename)

	// 1. 将原始文件写入对象存储
	log.Infof("[DocumentService] 步骤1: 写入对象存储, objectName: %s", objectName)
	if err := storage.PutObject(ctx, config.Conf.MinIO.BucketName, objectName, reader, size, contentType); err != nil {
		log.Errorf("[DocumentService] 写入对象存储失败: %v", err)
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	// 2. 创建文档记录，初始状态为待处理
	log.Info("[DocumentService] 步骤2: 创建文档记录")
	doc := &model.Document{
		ID:          documentID,
		Filename:    filename,
		ContentType: contentType,
		UserID:      user.ID,
		Size:        size,
		Status:      model.DocumentStatusPending,
	}
	if err := s.docRepo.Create(doc); err != nil {
		log.Errorf("[DocumentService] 创建文档记录失败: %v", err)
		// 落库失败时清理已写入的对象，避免产生孤儿文件
		if rmErr := storage.RemoveObject(ctx, config.Conf.MinIO.BucketName, objectName); rmErr != nil {
			log.Errorf("[DocumentService] 清理对象存储失败: %v", rmErr)
		}
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	// 3. 投递异步处理任务
	log.Info("[DocumentService] 步骤3: 投递 Kafka 处理任务")
	task := tasks.DocumentProcessingTask{
		DocumentID:  documentID,
		ObjectName:  objectName,
		FileName:    filename,
		ContentType: contentType,
		UserID:      user.ID,
	}
	if err := kafka.ProduceDocumentTask(task); err != nil {
		log.Errorf("[DocumentService] 投递 Kafka 任务失败: %v", err)
		return nil, fmt.Errorf("failed to enqueue processing task: %w", err)
	}

	log.Infof("[DocumentService] 文件上传成功, documentID: %s", documentID)
	return doc, nil
}

// List 分页列出当前用户可见的文档，管理员可见全部。
func (s *documentService) List(ctx context.Context, user *model.User, page, size int) ([]model.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	if user.IsAdmin() {
		return s.docRepo.FindAllWithPagination(offset, size)
	}
	return s.docRepo.FindByUserID(user.ID, offset, size)
}

// GetMetadata 返回单个文档的元数据。
// 文档不存在返回 ErrNotFound，无权访问返回 ErrAccessDenied，两者语义不同。
func (s *documentService) GetMetadata(ctx context.Context, documentID string, user *model.User) (*model.Document, error) {
	doc, err := s.docRepo.FindByID(documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrAccessDenied
	}
	return doc, nil
}

// GetDownloadURL 为文档原始文件生成一个预签名下载链接。
func (s *documentService) GetDownloadURL(ctx context.Context, documentID string, user *model.User) (string, error) {
	doc, err := s.GetMetadata(ctx, documentID, user)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("uploads/%s/%s", doc.ID, doc.Filename)
	url, err := storage.GetPresignedURL(config.Conf.MinIO.BucketName, objectName, 15*time.Minute)
	if err != nil {
		return "", fmt.Errorf("failed to generate download url: %w", err)
	}
	return url, nil
}

// Delete 删除文档：对象存储、数据库记录与分段、两个 Elasticsearch 索引中的条目。
func (s *documentService) Delete(ctx context.Context, documentID string, user *model.User) error {
	doc, err := s.GetMetadata(ctx, documentID, user)
	if err != nil {
		return err
	}

	log.Infof("[DocumentService] 开始删除文档, documentID: %s", documentID)

	objectName := fmt.Sprintf("uploads/%s/%s", doc.ID, doc.Filename)
	if err := storage.RemoveObject(ctx, config.Conf.MinIO.BucketName, objectName); err != nil {
		log.Errorf("[DocumentService] 删除对象存储文件失败: %v", err)
		return fmt.Errorf("failed to remove stored file: %w", err)
	}

	if err := es.DeleteByDocumentID(ctx, config.Conf.Elasticsearch.SegmentIndex, documentID); err != nil {
		log.Errorf("[DocumentService] 删除 Elasticsearch 分段条目失败: %v", err)
		return fmt.Errorf("failed to remove segment index entries: %w", err)
	}
	if err := es.DeleteByDocumentID(ctx, config.Conf.Elasticsearch.DocumentIndex, documentID); err != nil {
		log.Errorf("[DocumentService] 删除 Elasticsearch 文档条目失败: %v", err)
		return fmt.Errorf("failed to remove document index entry: %w", err)
	}

	if err := s.docRepo.Delete(documentID); err != nil {
		log.Errorf("[DocumentService] 删除数据库记录失败: %v", err)
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	log.Infof("[DocumentService] 文档删除成功, documentID: %s", documentID)
	return nil
}
