package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docuseek-go/internal/model"
	"docuseek-go/internal/service"
	"docuseek-go/pkg/log"
)

// DocumentHandler 负责处理文档相关的 API 请求。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// currentUser 从 Gin 上下文中取出认证中间件注入的用户对象。
func currentUser(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return nil, false
	}
	return user.(*model.User), true
}

// respondDocumentError 将业务层错误映射为对应的 HTTP 状态码。
func respondDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "文档不存在"})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "无权访问该文档"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
	}
}

func (h *DocumentHandler) uploadOne(c *gin.Context, user *model.User, fileHeader *multipart.FileHeader) (*model.Document, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return h.documentService.Upload(c.Request.Context(), user, fileHeader.Filename, contentType, fileHeader.Size, file)
}

// Upload 处理单文件上传请求。
func (h *DocumentHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件"})
		return
	}

	doc, err := h.uploadOne(c, user, fileHeader)
	if err != nil {
		log.Errorf("[DocumentHandler] 上传失败, filename: %s, error: %v", fileHeader.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "上传失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": doc, "message": "success"})
}

// BulkUpload 处理多文件批量上传请求，逐个处理并汇报每个文件的结果。
func (h *DocumentHandler) BulkUpload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 multipart 请求"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件"})
		return
	}

	type bulkResult struct {
		Filename string `json:"filename"`
		FileID   string `json:"fileId,omitempty"`
		Error    string `json:"error,omitempty"`
	}
	results := make([]bulkResult, 0, len(files))
	for _, fh := range files {
		doc, err := h.uploadOne(c, user, fh)
		if err != nil {
			log.Errorf("[DocumentHandler] 批量上传单个文件失败, filename: %s, error: %v", fh.Filename, err)
			results = append(results, bulkResult{Filename: fh.Filename, Error: "上传失败"})
			continue
		}
		results = append(results, bulkResult{Filename: fh.Filename, FileID: doc.ID})
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}

// List 分页列出当前用户可见的文档。
func (h *DocumentHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	docs, total, err := h.documentService.List(c.Request.Context(), user, page, size)
	if err != nil {
		log.Errorf("[DocumentHandler] 列出文档失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取文档列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"content":       docs,
			"totalElements": total,
		},
		"message": "success",
	})
}

// GetMetadata 返回单个文档的元数据。
func (h *DocumentHandler) GetMetadata(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	documentID := c.Param("id")

	doc, err := h.documentService.GetMetadata(c.Request.Context(), documentID, user)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": doc, "message": "success"})
}

// Download 返回文档原始文件的预签名下载链接。
func (h *DocumentHandler) Download(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	documentID := c.Param("id")

	url, err := h.documentService.GetDownloadURL(c.Request.Context(), documentID, user)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"url": url}, "message": "success"})
}

// Delete 删除文档及其全部派生数据。
func (h *DocumentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	documentID := c.Param("id")

	if err := h.documentService.Delete(c.Request.Context(), documentID, user); err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success"})
}
