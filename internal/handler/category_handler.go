package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docuseek-go/internal/service"
)

// CategoryHandler 负责处理分类标签相关的 API 请求。
type CategoryHandler struct {
	categoryService service.CategoryService
}

// NewCategoryHandler 创建一个新的 CategoryHandler 实例。
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// ListCategories 返回全部可用的分类标签。
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"data":    h.categoryService.GetAllCategories(),
		"message": "success",
	})
}
