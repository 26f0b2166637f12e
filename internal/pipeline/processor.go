// Package pipeline 定义了文档摄取处理的核心流程。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"docuseek-go/internal/config"
	"docuseek-go/internal/index"
	"docuseek-go/internal/model"
	"docuseek-go/internal/repository"
	"docuseek-go/internal/service"
	"docuseek-go/pkg/es"
	"docuseek-go/pkg/log"
	"docuseek-go/pkg/storage"
	"docuseek-go/pkg/tasks"
	"docuseek-go/pkg/tika"
)

// Processor 封装了文档处理的所有依赖和逻辑。
type Processor struct {
	tikaClient      *tika.Client
	segmenter       *index.Segmenter
	categoryService service.CategoryService
	esCfg           config.ElasticsearchConfig
	minioCfg        config.MinIOConfig
	embeddingCfg    config.EmbeddingConfig
	docRepo         repository.DocumentRepository
	segmentRepo     repository.SegmentRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	tikaClient *tika.Client,
	segmenter *index.Segmenter,
	categoryService service.CategoryService,
	esCfg config.ElasticsearchConfig,
	minioCfg config.MinIOConfig,
	embeddingCfg config.EmbeddingConfig,
	docRepo repository.DocumentRepository,
	segmentRepo repository.SegmentRepository,
) *Processor {
	return &Processor{
		tikaClient:      tikaClient,
		segmenter:       segmenter,
		categoryService: categoryService,
		esCfg:           esCfg,
		minioCfg:        minioCfg,
		embeddingCfg:    embeddingCfg,
		docRepo:         docRepo,
		segmentRepo:     segmentRepo,
	}
}

// Process 是文档处理的主函数。处理失败时文档被标记为失败状态，
// 消费者侧会按重试策略重新投递。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentProcessingTask) error {
	if err := p.run(ctx, task); err != nil {
		if updErr := p.docRepo.UpdateStatus(task.DocumentID, model.DocumentStatusFailed); updErr != nil {
			log.Errorf("[Processor] 更新文档失败状态出错, DocumentID: %s, Error: %v", task.DocumentID, updErr)
		}
		return err
	}
	return nil
}

func (p *Processor) run(ctx context.Context, task tasks.DocumentProcessingTask) error {
	log.Infof("[Processor] 开始处理文档, DocumentID: %s, FileName: %s, UserID: %d", task.DocumentID, task.FileName, task.UserID)

	// 1. 从 MinIO 下载原始文件
	log.Infof("[Processor] 步骤1: 从MinIO下载文件, Bucket: %s, Object: %s", p.minioCfg.BucketName, task.ObjectName)
	object, err := storage.GetObject(ctx, p.minioCfg.BucketName, task.ObjectName)
	if err != nil {
		log.Errorf("[Processor] 从MinIO下载文件失败, Object: %s, Error: %v", task.ObjectName, err)
		return fmt.Errorf("从 MinIO 下载文件失败: %w", err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(object)
	if err != nil {
		log.Errorf("[Processor] 从MinIO对象流中读取内容失败, Error: %v", err)
		return fmt.Errorf("读取MinIO对象流失败: %w", err)
	}
	log.Infof("[Processor] 步骤1: 文件下载成功, 大小: %d字节", size)
	if size == 0 {
		log.Warnf("[Processor] 文件 '%s' 内容为空, 处理中止", task.FileName)
		return errors.New("文件内容为空")
	}

	// 2. 使用 Tika 提取文本与元数据
	log.Info("[Processor] 步骤2: 使用Tika提取文本内容")
	textContent, err := p.tikaClient.ExtractText(bytes.NewReader(buf.Bytes()), task.FileName)
	if err != nil {
		log.Errorf("[Processor] 使用Tika提取文本失败, FileName: %s, Error: %v", task.FileName, err)
		return fmt.Errorf("使用 Tika 提取文本失败: %w", err)
	}
	if textContent == "" {
		log.Warnf("[Processor] Tika提取的文本内容为空, 处理中止, FileName: %s", task.FileName)
		return errors.New("提取的文本内容为空")
	}
	log.Infof("[Processor] 步骤2: 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(textContent))

	metadata, err := p.tikaClient.ExtractMetadata(bytes.NewReader(buf.Bytes()), task.FileName)
	if err != nil {
		// 元数据并非处理链路的关键环节，提取失败时记录并继续
		log.Warnf("[Processor] 使用Tika提取元数据失败, FileName: %s, Error: %v", task.FileName, err)
		metadata = model.MetadataMap{}
	}

	// 3. 自动分类
	log.Info("[Processor] 步骤3: 对文档正文进行自动分类")
	categories, err := p.categoryService.Classify(ctx, textContent)
	if err != nil {
		log.Warnf("[Processor] 文档自动分类失败, FileName: %s, Error: %v", task.FileName, err)
		categories = []string{}
	}
	log.Infof("[Processor] 步骤3: 分类完成, 标签: %v", categories)

	// 4. 按行切分并向量化
	log.Info("[Processor] 步骤4: 按行切分正文并批量向量化")
	segments, err := p.segmenter.Segment(ctx, textContent)
	if err != nil {
		log.Errorf("[Processor] 文本切分或向量化失败, FileName: %s, Error: %v", task.FileName, err)
		return fmt.Errorf("文本切分失败: %w", err)
	}
	log.Infof("[Processor] 步骤4: 切分完成, 共生成 %d 个分段", len(segments))

	for i := range segments {
		segments[i].DocumentID = task.DocumentID
	}

	// 5. 原子替换数据库中的分段记录（重复处理时保持幂等）
	log.Info("[Processor] 步骤5: 将分段写入数据库")
	if err := p.segmentRepo.ReplaceForDocument(task.DocumentID, segments); err != nil {
		log.Errorf("[Processor] 写入分段记录失败, DocumentID: %s, Error: %v", task.DocumentID, err)
		return fmt.Errorf("写入分段记录失败: %w", err)
	}

	// 6. 更新文档记录：全文、元数据、分类、完成状态
	log.Info("[Processor] 步骤6: 更新文档记录")
	if err := p.docRepo.UpdateExtraction(task.DocumentID, textContent, metadata, categories, model.DocumentStatusCompleted); err != nil {
		log.Errorf("[Processor] 更新文档记录失败, DocumentID: %s, Error: %v", task.DocumentID, err)
		return fmt.Errorf("更新文档记录失败: %w", err)
	}

	// 7. 将分段向量与文档全文索引到 Elasticsearch。
	// 分段 ID 以数据库主键为准，回读持久化后的记录再建索引。
	log.Info("[Processor] 步骤7: 索引到 Elasticsearch")
	persisted, err := p.segmentRepo.FindByDocumentID(task.DocumentID)
	if err != nil {
		log.Errorf("[Processor] 回读分段记录失败, DocumentID: %s, Error: %v", task.DocumentID, err)
		return fmt.Errorf("回读分段记录失败: %w", err)
	}
	if err := es.DeleteByDocumentID(ctx, p.esCfg.SegmentIndex, task.DocumentID); err != nil {
		log.Warnf("[Processor] 清理 Elasticsearch 旧分段失败, DocumentID: %s, Error: %v", task.DocumentID, err)
	}
	for i := range persisted {
		seg := &persisted[i]
		esSeg := model.EsSegment{
			SegmentID:     fmt.Sprintf("%s_%d", task.DocumentID, seg.ID),
			DocumentID:    task.DocumentID,
			StartPosition: seg.StartPosition,
			EndPosition:   seg.EndPosition,
			Vector:        seg.Embedding,
			ModelVersion:  p.embeddingCfg.Model,
			UserID:        task.UserID,
		}
		if err := es.IndexSegment(ctx, p.esCfg.SegmentIndex, esSeg); err != nil {
			log.Errorf("[Processor] 索引分段失败, SegmentID: %s, Error: %v", esSeg.SegmentID, err)
			return fmt.Errorf("索引分段失败: %w", err)
		}
	}

	esDoc := model.EsDocument{
		DocumentID:  task.DocumentID,
		Filename:    task.FileName,
		ContentType: task.ContentType,
		Content:     textContent,
		Categories:  categories,
		UserID:      task.UserID,
	}
	if err := es.IndexDocument(ctx, p.esCfg.DocumentIndex, esDoc); err != nil {
		log.Errorf("[Processor] 索引文档全文失败, DocumentID: %s, Error: %v", task.DocumentID, err)
		return fmt.Errorf("索引文档全文失败: %w", err)
	}

	log.Infof("[Processor] 文档处理完成, DocumentID: %s, 分段数: %d", task.DocumentID, len(segments))
	return nil
}
