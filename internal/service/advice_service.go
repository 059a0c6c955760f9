package service

import (
	"context"
	"strings"

	"lexaid-go/internal/config"
	"lexaid-go/internal/model"
	"lexaid-go/internal/repository"
	"lexaid-go/pkg/llm"
	"lexaid-go/pkg/log"
)

// defaultSystemPrompt 是未配置时使用的法律顾问人设。
const defaultSystemPrompt = "You are a professional legal advisor based in India. " +
	"Give clear, structured, simple legal explanations. " +
	"Refer to all the Indian laws and documents. " +
	"Mention that advice is for educational purposes only."

// titleMaxLen 是自动生成标题保留的最大字符数（按 rune 计）。
const titleMaxLen = 50

// StreamSink 接收将要下发给客户端的流式事件。
// SSE handler 和测试中的假实现都满足这个接口。
type StreamSink interface {
	SendContent(content string) error
	SendError(message string) error
	SendDone() error
}

// AdviceService 定义了法律咨询转发操作的接口。
type AdviceService interface {
	// StreamAdvice 将消息历史转发给上游模型，把增量分块按序写入 sink，
	// 流结束后将这次问答追加到指定对话（若提供且属于调用者）。
	StreamAdvice(ctx context.Context, userID uint, history []llm.Message, conversationID uint, sink StreamSink)
}

type adviceService struct {
	llmClient llm.Client
	convRepo  repository.ConversationRepository
}

// NewAdviceService 创建一个新的 AdviceService 实例。
func NewAdviceService(llmClient llm.Client, convRepo repository.ConversationRepository) AdviceService {
	return &adviceService{
		llmClient: llmClient,
		convRepo:  convRepo,
	}
}

// StreamAdvice 协调整个转发流程。
// 响应头已发出后，任何失败都只能表现为流内错误事件；无论成败，
// 结束标记总会尝试发送。
func (s *adviceService) StreamAdvice(ctx context.Context, userID uint, history []llm.Message, conversationID uint, sink StreamSink) {
	// 无论走到哪个分支，最后都发送结束标记
	defer func() {
		_ = sink.SendDone()
	}()

	// 1. 前置固定 system 人设
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: s.systemPrompt()})
	messages = append(messages, history...)

	// 2. 打开上游流式请求
	ch, err := s.llmClient.StreamChat(ctx, messages)
	if err != nil {
		log.Error("failed to open upstream stream", err)
		_ = sink.SendError("Something went wrong")
		return
	}

	// 3. 逐块转发并累积完整回答；顺序严格保持上游到达顺序
	var answer strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			log.Error("upstream stream failed", chunk.Err)
			_ = sink.SendError("Something went wrong")
			return
		}
		answer.WriteString(chunk.Content)
		if err := sink.SendContent(chunk.Content); err != nil {
			// 客户端已断开，放弃本次转发（不保存半截流）
			log.Warnf("client went away mid-stream: %v", err)
			return
		}
	}

	// 4. 上游流正常耗尽后持久化这次问答。
	// 任何持久化失败只记日志，绝不打断已经下发完成的流。
	// 即使请求上下文已被取消也要保存完整回答
	if conversationID != 0 && answer.Len() > 0 {
		s.persistExchange(userID, conversationID, history, answer.String())
	}
}

// persistExchange 将触发本次转发的用户消息与累积的回答追加到对话，
// 并在标题仍为占位值时从首条用户消息派生新标题。
func (s *adviceService) persistExchange(userID, conversationID uint, history []llm.Message, answer string) {
	conv, err := s.convRepo.FindByIDAndUser(conversationID, userID)
	if err != nil {
		// 对话不存在或不属于调用者：静默跳过
		log.Warnf("skip saving exchange, conversation %d not available for user %d: %v", conversationID, userID, err)
		return
	}

	lastUserMsg := history[len(history)-1]
	messages := []model.Message{
		{Role: model.RoleUser, Content: lastUserMsg.Content},
		{Role: model.RoleAssistant, Content: answer},
	}

	newTitle := ""
	if conv.Title == model.DefaultConversationTitle {
		if first := firstUserMessage(history); first != "" {
			newTitle = deriveTitle(first)
		}
	}

	if err := s.convRepo.AppendMessages(conversationID, userID, messages, newTitle); err != nil {
		log.Error("failed to save exchange to conversation", err)
	}
}

func (s *adviceService) systemPrompt() string {
	if p := config.Conf.LLM.SystemPrompt; p != "" {
		return p
	}
	return defaultSystemPrompt
}

// firstUserMessage 返回历史中第一条用户消息的内容。
func firstUserMessage(history []llm.Message) string {
	for _, m := range history {
		if m.Role == model.RoleUser {
			return m.Content
		}
	}
	return ""
}

// deriveTitle 从消息内容派生对话标题，超过上限时按 rune 截断并追加省略号。
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxLen {
		return content
	}
	return string(runes[:titleMaxLen]) + "..."
}
