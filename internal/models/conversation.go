package models

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation is one completed turn. Rows are appended and bulk-deleted,
// never updated.
type Conversation struct {
	ID               uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID           string         `gorm:"column:user_id;type:varchar(255);index" json:"user_id"`
	ConversationData datatypes.JSON `gorm:"column:conversation_data" json:"conversation_data"`
	CreatedAt        time.Time      `gorm:"column:created_at;index" json:"created_at"`
	SessionID        *string        `gorm:"column:session_id;type:varchar(255)" json:"session_id,omitempty"`

}

func (Conversation) TableName() string { return "conversations" }

type ConversationData struct {
	Timestamp         time.Time `json:"timestamp"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	ContextUsed       bool      `json:"context_used"`
}

type UserAnalytics struct {
	TotalConversations int64      `json:"total_conversations"`
	FirstInteraction   *time.Time `json:"first_interaction"`
	LastInteraction    *time.Time `json:"last_interaction"`
}

// UserData is what a returning user gets loaded on identification.
type UserData struct {
	Preferences   *Preferences       `json:"preferences"`
	Conversations []ConversationData `json:"conversations"`
}
