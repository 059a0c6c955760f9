package handler

import (
	"net/http"
	"strconv"

	"lexaid-go/internal/apperr"
	"lexaid-go/internal/model"
	"lexaid-go/internal/service"
	"lexaid-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与对话相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// currentUser 取出 AuthMiddleware 注入的用户对象。
func currentUser(c *gin.Context) *model.User {
	return c.MustGet("user").(*model.User)
}

// List 返回调用者的全部对话（投影，不含消息），最近更新的在前。
func (h *ConversationHandler) List(c *gin.Context) {
	user := currentUser(c)

	summaries, err := h.service.List(user.ID)
	if err != nil {
		log.Error("List conversations failed", err)
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.ClientMessage(err)})
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// Create 为调用者新建一个空对话。
func (h *ConversationHandler) Create(c *gin.Context) {
	user := currentUser(c)

	conv, err := h.service.Create(user.ID)
	if err != nil {
		log.Error("Create conversation failed", err)
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.ClientMessage(err)})
		return
	}

	c.JSON(http.StatusCreated, conv)
}

// Get 返回一个属于调用者的完整对话（含全部消息）。
func (h *ConversationHandler) Get(c *gin.Context) {
	user := currentUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	conv, err := h.service.Get(uint(id), user.ID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.ClientMessage(err)})
		return
	}

	c.JSON(http.StatusOK, conv)
}

// Delete 删除一个属于调用者的对话。
func (h *ConversationHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	if err := h.service.Delete(uint(id), user.ID); err != nil {
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.ClientMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted"})
}
