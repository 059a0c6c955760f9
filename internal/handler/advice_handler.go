package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"lexaid-go/internal/service"
	"lexaid-go/pkg/llm"

	"github.com/gin-gonic/gin"
)

// AdviceHandler 负责处理法律咨询的流式转发请求。
type AdviceHandler struct {
	adviceService service.AdviceService
}

// NewAdviceHandler 创建一个新的 AdviceHandler 实例。
func NewAdviceHandler(adviceService service.AdviceService) *AdviceHandler {
	return &AdviceHandler{adviceService: adviceService}
}

// AdviceRequest 定义了咨询 API 的请求体结构。
// History 是到当前为止的完整消息历史（最后一条是用户的新提问）；
// ConversationID 可选，提供时流结束后会把这次问答追加到该对话。
type AdviceRequest struct {
	History        []llm.Message `json:"history"`
	ConversationID uint          `json:"conversationId"`
}

// Stream 处理咨询请求，以 SSE 事件流下发增量回答。
// 任何校验失败都在写出流式响应头之前以普通 HTTP 错误返回。
func (h *AdviceHandler) Stream(c *gin.Context) {
	var req AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.History) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Conversation history is required"})
		return
	}

	user := currentUser(c)

	// 设置 SSE 响应头，之后的任何失败都只能以流内事件表达
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	sink := &sseSink{w: c.Writer}
	h.adviceService.StreamAdvice(c.Request.Context(), user.ID, req.History, req.ConversationID, sink)
}

// sseSink 将流式事件编码为 SSE 帧写入响应，每个事件后立即 flush。
type sseSink struct {
	w gin.ResponseWriter
}

// SendContent 下发一个增量内容分块：data: {"content":"..."}
func (s *sseSink) SendContent(content string) error {
	return s.writeEvent(map[string]string{"content": content})
}

// SendError 下发一个终止错误事件：data: {"error":"..."}
func (s *sseSink) SendError(message string) error {
	return s.writeEvent(map[string]string{"error": message})
}

// SendDone 下发结束标记：data: [DONE]
func (s *sseSink) SendDone() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (s *sseSink) writeEvent(payload map[string]string) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}
