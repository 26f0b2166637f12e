package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docuseek-go/internal/service"
	"docuseek-go/pkg/log"
)

// ConversationHandler 负责处理对话历史相关的 API 请求。
type ConversationHandler struct {
	conversationService service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// GetHistory 返回当前用户的对话历史。
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := h.conversationService.GetConversationHistory(c.Request.Context(), user.ID)
	if err != nil {
		log.Errorf("[ConversationHandler] 获取对话历史失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取对话历史失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": history, "message": "success"})
}

// Reset 清除当前用户的对话，下次提问将开启新会话。
func (h *ConversationHandler) Reset(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.conversationService.ResetConversation(c.Request.Context(), user.ID); err != nil {
		log.Errorf("[ConversationHandler] 重置对话失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "重置对话失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success"})
}
