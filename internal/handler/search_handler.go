package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docuseek-go/internal/service"
	"docuseek-go/pkg/log"
)

// SearchHandler 结构体定义了搜索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// ContextualSearch 是处理语义检索请求的 Gin 处理函数。
// 支持可选的 filter 布尔表达式与 contextRange 上下文窗口参数。
func (h *SearchHandler) ContextualSearch(c *gin.Context) {
	query := c.Query("query")
	log.Infof("[SearchHandler] 收到语义检索请求, query: %s", query)

	if query == "" {
		log.Warnf("[SearchHandler] 检索请求失败: query 参数为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}

	filterExpr := c.Query("filter")
	contextRange, err := strconv.Atoi(c.DefaultQuery("contextRange", "0"))
	if err != nil || contextRange < 0 {
		contextRange = 0
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	results, err := h.searchService.ContextualSearch(c.Request.Context(), query, filterExpr, contextRange, user)
	if err != nil {
		log.Errorf("[SearchHandler] 语义检索服务返回错误, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}

	log.Infof("[SearchHandler] 语义检索成功, query: '%s', 返回 %d 条结果", query, len(results))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}

// FullTextSearch 是处理关键词全文检索请求的 Gin 处理函数。
func (h *SearchHandler) FullTextSearch(c *gin.Context) {
	query := c.Query("query")
	log.Infof("[SearchHandler] 收到全文检索请求, query: %s", query)

	if query == "" {
		log.Warnf("[SearchHandler] 检索请求失败: query 参数为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}

	category := c.Query("category")

	user, ok := currentUser(c)
	if !ok {
		return
	}

	results, err := h.searchService.FullTextSearch(c.Request.Context(), query, category, user)
	if err != nil {
		log.Errorf("[SearchHandler] 全文检索服务返回错误, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}

	log.Infof("[SearchHandler] 全文检索成功, query: '%s', 返回 %d 条结果", query, len(results))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}
