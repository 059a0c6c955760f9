package service

import (
	"errors"

	"lexaid-go/internal/apperr"
	"lexaid-go/internal/model"
	"lexaid-go/internal/repository"

	"gorm.io/gorm"
)

// ConversationService 定义了对话 CRUD 的业务接口。
// 所有操作都以调用者身份为所有权过滤条件。
type ConversationService interface {
	List(userID uint) ([]model.ConversationSummary, error)
	Create(userID uint) (*model.Conversation, error)
	Get(id, userID uint) (*model.Conversation, error)
	Delete(id, userID uint) error
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// List 返回调用者的对话列表（不含消息），最近更新的在前。
func (s *conversationService) List(userID uint) ([]model.ConversationSummary, error) {
	summaries, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "failed to list conversations", err)
	}
	return summaries, nil
}

// Create 为调用者插入一个带占位标题的空对话，返回完整文档。
func (s *conversationService) Create(userID uint) (*model.Conversation, error) {
	conv := &model.Conversation{
		UserID:   userID,
		Title:    model.DefaultConversationTitle,
		Messages: []model.Message{},
	}
	if err := s.repo.Create(conv); err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "failed to create conversation", err)
	}
	return conv, nil
}

// Get 返回属于调用者的完整对话（含消息）。
// 对话不存在与不属于调用者返回同一个 NotFound，避免泄露存在性。
func (s *conversationService) Get(id, userID uint) (*model.Conversation, error) {
	conv, err := s.repo.FindByIDAndUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Conversation not found")
		}
		return nil, apperr.Wrap(apperr.Unexpected, "failed to load conversation", err)
	}
	return conv, nil
}

// Delete 删除属于调用者的对话，未命中时与 Get 一样返回 NotFound。
func (s *conversationService) Delete(id, userID uint) error {
	err := s.repo.DeleteByIDAndUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Conversation not found")
		}
		return apperr.Wrap(apperr.Unexpected, "failed to delete conversation", err)
	}
	return nil
}
