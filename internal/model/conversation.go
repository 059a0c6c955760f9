package model

import "time"

// DefaultConversationTitle 是新建对话的占位标题。
// 标题自动设置只在仍为该占位值时发生一次。
const DefaultConversationTitle = "New Conversation"

// 消息角色取值。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation 代表一个归属于单个用户的对话。
// 所有读写删除都必须以 user_id 过滤，这是唯一的授权机制。
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Messages  []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ConversationSummary 是对话列表的投影，不含消息体。
type ConversationSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message 是对话中的一条消息。只追加，不存在编辑或重排操作；
// 对话内的顺序即插入顺序（按自增 ID）。
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversationId"`
	Role           string    `gorm:"type:varchar(16);not null" json:"role"` // "user" 或 "assistant"
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
