package repository

import (
	"time"

	"lexaid-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 定义了对话的持久化操作。
// 每个查询都以 userID 过滤，"行级"所有权过滤是唯一的授权机制：
// 不存在与不属于调用者的对话在结果上不可区分。
type ConversationRepository interface {
	Create(conv *model.Conversation) error
	ListByUser(userID uint) ([]model.ConversationSummary, error)
	FindByIDAndUser(id, userID uint) (*model.Conversation, error)
	DeleteByIDAndUser(id, userID uint) error
	AppendMessages(id, userID uint, messages []model.Message, newTitle string) error
}

// conversationRepository 是 ConversationRepository 接口的 GORM 实现。
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create 插入一个新的对话记录。
func (r *conversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// ListByUser 返回用户的全部对话投影（不含消息），按最近更新排序。
func (r *conversationRepository) ListByUser(userID uint) ([]model.ConversationSummary, error) {
	summaries := make([]model.ConversationSummary, 0)
	err := r.db.Model(&model.Conversation{}).
		Select("id", "title", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&summaries).Error
	return summaries, err
}

// FindByIDAndUser 返回属于该用户的完整对话，消息按插入顺序加载。
func (r *conversationRepository) FindByIDAndUser(id, userID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.id ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteByIDAndUser 删除属于该用户的对话；没有命中任何行时返回 ErrRecordNotFound。
func (r *conversationRepository) DeleteByIDAndUser(id, userID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).
		Select("Messages").
		Delete(&model.Conversation{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendMessages 在一个事务内向对话追加消息并更新时间戳；
// newTitle 非空时一并更新标题（调用方负责占位标题检查）。
func (r *conversationRepository) AppendMessages(id, userID uint, messages []model.Message, newTitle string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&conv).Error; err != nil {
			return err
		}

		for i := range messages {
			messages[i].ConversationID = conv.ID
		}
		if err := tx.Create(&messages).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if newTitle != "" {
			updates["title"] = newTitle
		}
		return tx.Model(&model.Conversation{}).Where("id = ?", conv.ID).Updates(updates).Error
	})
}
