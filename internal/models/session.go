package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConversationSession is a titled, ordered collection of messages. It is not
// the authentication session (see ChatContext).
type ConversationSession struct {
	SessionID    string    `gorm:"column:session_id;type:varchar(255);primaryKey" json:"session_id"`
	UserID       string    `gorm:"column:user_id;type:varchar(255);index" json:"user_id"`
	Title        string    `gorm:"column:title;type:varchar(500);not null" json:"title"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	LastUpdated  time.Time `gorm:"column:last_updated;index" json:"last_updated"`
	MessageCount int       `gorm:"column:message_count;default:0" json:"message_count"`

	// CustomTitle is set when the user chose the title, which keeps the first
	// message from renaming the session.
	CustomTitle bool `gorm:"column:custom_title;default:false" json:"custom_title"`

	Messages []ConversationMessage `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ConversationSession) TableName() string { return "conversation_sessions" }

type ConversationMessage struct {
	ID          uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID   string         `gorm:"column:session_id;type:varchar(255);index" json:"session_id"`
	UserID      string         `gorm:"column:user_id;type:varchar(255)" json:"user_id"`
	MessageData datatypes.JSON `gorm:"column:message_data;not null" json:"message_data"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`

}

func (ConversationMessage) TableName() string { return "conversation_messages" }

type MessageData struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

// UserSession tracks one identified visit: when it began, when it ended and
// how many turns it carried.
type UserSession struct {
	SessionID     string     `gorm:"column:session_id;type:varchar(255);primaryKey" json:"session_id"`
	UserID        string     `gorm:"column:user_id;type:varchar(255);index" json:"user_id"`
	StartTime     time.Time  `gorm:"column:start_time" json:"start_time"`
	EndTime       *time.Time `gorm:"column:end_time" json:"end_time,omitempty"`
	MessagesCount int        `gorm:"column:messages_count;default:0" json:"messages_count"`

}

func (UserSession) TableName() string { return "user_sessions" }
